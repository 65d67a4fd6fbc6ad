package ingest

import (
	"net/url"
	"strings"
)

// Reliability scores assigned to new sources by domain class. The
// corpus curators can adjust individual sources afterwards; these are
// only starting values.
const (
	reliabilityOfficial = 0.95
	reliabilityOutlet   = 0.75
	reliabilityDefault  = 0.4
)

// officialDomains are health authorities and government bodies.
var officialDomains = []string{
	"who.int",
	"paho.org",
	"un.org",
	"europa.eu",
}

// outletDomains are established fact-checking organizations.
var outletDomains = []string{
	"chequeado.com",
	"maldita.es",
	"newtral.es",
	"factchequeado.com",
	"animalpolitico.com",
	"afp.com",
}

// officialSuffixes catch government and academic hosts by TLD.
var officialSuffixes = []string{
	".gov",
	".edu",
	".gob.mx",
	".gob.ar",
	".gob.cl",
	".gob.es",
	".gob.pe",
}

// SourceReliability classifies a URL's host and returns the initial
// reliability score and whether the source counts as verified.
// Unparseable URLs get the default score.
func SourceReliability(rawURL string) (float64, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return reliabilityDefault, false
	}

	host := strings.ToLower(parsed.Hostname())

	if matchesDomain(host, officialDomains) || matchesSuffix(host, officialSuffixes) {
		return reliabilityOfficial, true
	}
	if matchesDomain(host, outletDomains) {
		return reliabilityOutlet, true
	}
	return reliabilityDefault, false
}

func matchesDomain(host string, domains []string) bool {
	for _, domain := range domains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

func matchesSuffix(host string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(host, suffix) {
			return true
		}
	}
	return false
}
