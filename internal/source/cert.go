package source

import (
	"crypto/tls"
	"math"
	"time"
)

// Certificate states.
const (
	CertValid    = "valid"
	CertExpiring = "expiring"
	CertExpired  = "expired"
)

// expiringWithin is the window in which a certificate counts as expiring.
const expiringWithin = 30 * 24 * time.Hour

// CertStatus describes the leaf certificate an HTTPS source presented.
type CertStatus struct {
	Subject  string    `json:"subject"`
	Issuer   string    `json:"issuer"`
	NotAfter time.Time `json:"not_after"`
	DaysLeft int       `json:"days_left"`
	Status   string    `json:"status"`
}

// certFromState returns the status of the peer's leaf certificate, or nil
// for a plain-HTTP response.
func certFromState(state *tls.ConnectionState, now time.Time) *CertStatus {
	if state == nil || len(state.PeerCertificates) == 0 {
		return nil
	}
	leaf := state.PeerCertificates[0]
	left := leaf.NotAfter.Sub(now)

	cs := &CertStatus{
		Subject:  leaf.Subject.CommonName,
		Issuer:   leaf.Issuer.CommonName,
		NotAfter: leaf.NotAfter.UTC(),
		DaysLeft: int(math.Floor(left.Hours() / 24)),
	}
	switch {
	case left <= 0:
		cs.Status = CertExpired
	case left <= expiringWithin:
		cs.Status = CertExpiring
	default:
		cs.Status = CertValid
	}
	return cs
}
