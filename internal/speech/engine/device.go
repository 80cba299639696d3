package engine

import (
	"os"
	"os/exec"
	"sync"
)

// Devices a model can be placed on.
const (
	DeviceAuto = "auto"
	DeviceCPU  = "cpu"
	DeviceCUDA = "cuda"
)

// Compute precisions with per-device defaults.
const (
	ComputeFloat32 = "float32"
	ComputeFloat16 = "float16"
	ComputeInt8    = "int8"
)

var (
	cudaOnce      sync.Once
	cudaAvailable bool
)

// hasCUDA probes for an NVIDIA accelerator once per process, so that a
// device of "auto" always resolves the same way within a run.
func hasCUDA() bool {
	cudaOnce.Do(func() {
		if _, err := os.Stat("/proc/driver/nvidia/version"); err == nil {
			cudaAvailable = true
			return
		}
		_, err := exec.LookPath("nvidia-smi")
		cudaAvailable = err == nil
	})
	return cudaAvailable
}

// ResolveDevice maps "auto" to a concrete device. Any explicit device is
// returned unchanged.
func ResolveDevice(device string) string {
	if device != DeviceAuto && device != "" {
		return device
	}
	if hasCUDA() {
		return DeviceCUDA
	}
	return DeviceCPU
}

// ResolveComputeType returns the caller's compute type if set, otherwise the
// default for the resolved device: float32 on cpu (float16 triggers a
// precision warning from the inference backend there), float16 on cuda.
func ResolveComputeType(device, computeType string) string {
	if computeType != "" {
		return computeType
	}
	if device == DeviceCPU {
		return ComputeFloat32
	}
	return ComputeFloat16
}
