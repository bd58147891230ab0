// Package secform4 extracts insider transactions from SEC Form 4 filings.
// Input may be a full SGML submission wrapper or a standalone XML document;
// only the innermost ownershipDocument element is parsed.
package secform4

import (
	"encoding/xml"
	"errors"
	"math"
	"strconv"
	"strings"
)

// ErrNoOwnershipDocument is returned when no ownershipDocument element can
// be located in the filing text.
var ErrNoOwnershipDocument = errors.New("secform4: no ownershipDocument element found")

// Transaction is one classified insider transaction. Transaction codes
// outside {P, S, M} are dropped during parsing.
type Transaction struct {
	EventType               string
	TransactionType         string
	Code                    string
	Date                    string
	Shares                  *float64
	PricePerShare           *float64
	TotalValue              *float64
	AcquiredDisposed        string
	SecurityTitle           string
	UnderlyingSecurityTitle string
	Ownership               string
	Derivative              bool
}

// Filing is the parsed ownership document.
type Filing struct {
	IssuerCIK      string
	IssuerName     string
	IssuerSymbol   string
	OwnerName      string
	OwnerCIK       string
	Relationship   string
	OfficerTitle   string
	CoOwnerCount   int
	PeriodOfReport string
	Transactions   []Transaction
}

type xmlValue struct {
	Value string `xml:"value"`
}

type xmlTransaction struct {
	SecurityTitle   xmlValue `xml:"securityTitle"`
	TransactionDate xmlValue `xml:"transactionDate"`
	Coding          struct {
		TransactionCode string `xml:"transactionCode"`
	} `xml:"transactionCoding"`
	Amounts struct {
		Shares           xmlValue `xml:"transactionShares"`
		PricePerShare    xmlValue `xml:"transactionPricePerShare"`
		AcquiredDisposed xmlValue `xml:"transactionAcquiredDisposedCode"`
	} `xml:"transactionAmounts"`
	OwnershipNature struct {
		DirectOrIndirect xmlValue `xml:"directOrIndirectOwnership"`
	} `xml:"ownershipNature"`
	UnderlyingSecurity struct {
		Title xmlValue `xml:"underlyingSecurityTitle"`
	} `xml:"underlyingSecurity"`
}

type xmlOwner struct {
	ID struct {
		CIK  string `xml:"rptOwnerCik"`
		Name string `xml:"rptOwnerName"`
	} `xml:"reportingOwnerId"`
	Relationship struct {
		IsDirector        string `xml:"isDirector"`
		IsOfficer         string `xml:"isOfficer"`
		IsTenPercentOwner string `xml:"isTenPercentOwner"`
		IsOther           string `xml:"isOther"`
		OfficerTitle      string `xml:"officerTitle"`
		OtherText         string `xml:"otherText"`
	} `xml:"reportingOwnerRelationship"`
}

type xmlOwnershipDocument struct {
	PeriodOfReport string `xml:"periodOfReport"`
	Issuer         struct {
		CIK    string `xml:"issuerCik"`
		Name   string `xml:"issuerName"`
		Symbol string `xml:"issuerTradingSymbol"`
	} `xml:"issuer"`
	ReportingOwners []xmlOwner `xml:"reportingOwner"`
	NonDerivative   struct {
		Transactions []xmlTransaction `xml:"nonDerivativeTransaction"`
	} `xml:"nonDerivativeTable"`
	Derivative struct {
		Transactions []xmlTransaction `xml:"derivativeTransaction"`
	} `xml:"derivativeTable"`
}

// Parse extracts and parses the innermost ownershipDocument from filing
// text.
func Parse(text string) (*Filing, error) {
	doc, err := extractOwnershipDocument(text)
	if err != nil {
		return nil, err
	}

	var parsed xmlOwnershipDocument
	if err := xml.Unmarshal([]byte(doc), &parsed); err != nil {
		return nil, err
	}

	f := &Filing{
		IssuerCIK:      strings.TrimSpace(parsed.Issuer.CIK),
		IssuerName:     strings.TrimSpace(parsed.Issuer.Name),
		IssuerSymbol:   strings.TrimSpace(parsed.Issuer.Symbol),
		PeriodOfReport: strings.TrimSpace(parsed.PeriodOfReport),
	}

	if len(parsed.ReportingOwners) > 0 {
		first := parsed.ReportingOwners[0]
		f.OwnerName = strings.TrimSpace(first.ID.Name)
		f.OwnerCIK = strings.TrimSpace(first.ID.CIK)
		f.Relationship = relationshipString(first)
		f.OfficerTitle = strings.TrimSpace(first.Relationship.OfficerTitle)
		f.CoOwnerCount = len(parsed.ReportingOwners) - 1
	}

	for _, tx := range parsed.NonDerivative.Transactions {
		if out, ok := classify(tx, false); ok {
			f.Transactions = append(f.Transactions, out)
		}
	}
	for _, tx := range parsed.Derivative.Transactions {
		if out, ok := classify(tx, true); ok {
			f.Transactions = append(f.Transactions, out)
		}
	}

	return f, nil
}

// extractOwnershipDocument slices the innermost ownershipDocument element
// out of an SGML submission or standalone XML.
func extractOwnershipDocument(text string) (string, error) {
	start := strings.LastIndex(text, "<ownershipDocument")
	if start < 0 {
		return "", ErrNoOwnershipDocument
	}
	const closeTag = "</ownershipDocument>"
	end := strings.Index(text[start:], closeTag)
	if end < 0 {
		return "", ErrNoOwnershipDocument
	}
	return text[start : start+end+len(closeTag)], nil
}

// relationshipString joins the owner's relationship flags with slashes in
// the order officer/director/10% owner/other.
func relationshipString(owner xmlOwner) string {
	var parts []string
	if xmlBool(owner.Relationship.IsOfficer) {
		parts = append(parts, "officer")
	}
	if xmlBool(owner.Relationship.IsDirector) {
		parts = append(parts, "director")
	}
	if xmlBool(owner.Relationship.IsTenPercentOwner) {
		parts = append(parts, "10% owner")
	}
	if xmlBool(owner.Relationship.IsOther) {
		parts = append(parts, "other")
	}
	return strings.Join(parts, "/")
}

func classify(tx xmlTransaction, derivative bool) (Transaction, bool) {
	code := strings.TrimSpace(tx.Coding.TransactionCode)

	var eventType, transactionType string
	switch code {
	case "P":
		eventType, transactionType = "insider_buy", "purchase"
	case "S":
		eventType, transactionType = "insider_sell", "sale"
	case "M":
		eventType, transactionType = "insider_option_exercise", "exercise"
	default:
		return Transaction{}, false
	}

	out := Transaction{
		EventType:               eventType,
		TransactionType:         transactionType,
		Code:                    code,
		Date:                    strings.TrimSpace(tx.TransactionDate.Value),
		Shares:                  parseFloat(tx.Amounts.Shares.Value),
		PricePerShare:           parseFloat(tx.Amounts.PricePerShare.Value),
		AcquiredDisposed:        strings.TrimSpace(tx.Amounts.AcquiredDisposed.Value),
		SecurityTitle:           strings.TrimSpace(tx.SecurityTitle.Value),
		UnderlyingSecurityTitle: strings.TrimSpace(tx.UnderlyingSecurity.Title.Value),
		Ownership:               strings.TrimSpace(tx.OwnershipNature.DirectOrIndirect.Value),
		Derivative:              derivative,
	}

	if out.Shares != nil && out.PricePerShare != nil {
		total := round2(*out.Shares * *out.PricePerShare)
		out.TotalValue = &total
	}
	return out, true
}

func xmlBool(v string) bool {
	switch strings.TrimSpace(strings.ToLower(v)) {
	case "1", "true":
		return true
	default:
		return false
	}
}

func parseFloat(v string) *float64 {
	s := strings.TrimSpace(v)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
