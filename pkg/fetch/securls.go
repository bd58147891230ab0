package fetch

import (
	"fmt"
	"strconv"
	"strings"
)

// SEC EDGAR endpoints.
const (
	SECTickerMapURL = "https://www.sec.gov/files/company_tickers.json"
)

// SECSubmissionsURL returns the submissions feed URL for a CIK, zero-padded
// to ten digits.
func SECSubmissionsURL(cik string) string {
	return fmt.Sprintf("https://data.sec.gov/submissions/CIK%010d.json", cikInt(cik))
}

// SECFilingDocURL returns the primary document URL for a filing.
func SECFilingDocURL(cik, accession, primaryDocument string) string {
	return fmt.Sprintf("https://www.sec.gov/Archives/edgar/data/%d/%s/%s",
		cikInt(cik), strings.ReplaceAll(accession, "-", ""), primaryDocument)
}

// SECFilingTextURL returns the full submission text URL for a filing.
func SECFilingTextURL(cik, accession string) string {
	return fmt.Sprintf("https://www.sec.gov/Archives/edgar/data/%d/%s/%s.txt",
		cikInt(cik), strings.ReplaceAll(accession, "-", ""), accession)
}

func cikInt(cik string) int {
	n, err := strconv.Atoi(strings.TrimSpace(cik))
	if err != nil {
		return 0
	}
	return n
}
