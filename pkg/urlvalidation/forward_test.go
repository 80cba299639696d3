package urlvalidation

import (
	"net/netip"
	"testing"
)

func TestValidateForwardURLSchemes(t *testing.T) {
	if err := ValidateForwardURL("ftp://example.com/results", AllowPrivateIPs()); err == nil {
		t.Error("ftp scheme should be rejected")
	}
	if err := ValidateForwardURL("file:///etc/passwd", AllowPrivateIPs()); err == nil {
		t.Error("file scheme should be rejected")
	}
	if err := ValidateForwardURL("http://localhost:8080/results", AllowPrivateIPs()); err != nil {
		t.Errorf("http with AllowPrivateIPs should pass: %v", err)
	}
	if err := ValidateForwardURL("https://example.com/results", AllowPrivateIPs()); err != nil {
		t.Errorf("https should pass: %v", err)
	}
}

func TestValidateForwardURLNoHostname(t *testing.T) {
	if err := ValidateForwardURL("http:///path", AllowPrivateIPs()); err == nil {
		t.Error("URL without hostname should be rejected")
	}
	if err := ValidateForwardURL("::not a url::"); err == nil {
		t.Error("garbage should be rejected")
	}
}

func TestValidateForwardURLRejectsPrivate(t *testing.T) {
	private := []string{
		"http://127.0.0.1/hook",
		"http://10.1.2.3/hook",
		"http://192.168.1.10/hook",
		"http://169.254.169.254/latest/meta-data",
		"http://[::1]/hook",
	}
	for _, u := range private {
		if err := ValidateForwardURL(u); err == nil {
			t.Errorf("%s should be rejected without AllowPrivateIPs", u)
		}
		if err := ValidateForwardURL(u, AllowPrivateIPs()); err != nil {
			t.Errorf("%s should pass with AllowPrivateIPs: %v", u, err)
		}
	}
}

func TestIsReserved(t *testing.T) {
	reserved := []string{
		"127.0.0.1", "10.0.0.1", "172.16.0.1", "192.168.0.1",
		"169.254.1.1", "100.64.0.1", "0.0.0.0", "192.0.2.1",
		"198.51.100.1", "203.0.113.1", "224.0.0.1", "255.255.255.255",
		"::1", "fc00::1", "fe80::1",
	}
	for _, s := range reserved {
		if !isReserved(netip.MustParseAddr(s)) {
			t.Errorf("%s should be reserved", s)
		}
	}

	public := []string{"8.8.8.8", "1.1.1.1", "93.184.216.34", "2606:4700::1111"}
	for _, s := range public {
		if isReserved(netip.MustParseAddr(s)) {
			t.Errorf("%s should not be reserved", s)
		}
	}
}
