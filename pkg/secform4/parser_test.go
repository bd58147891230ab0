package secform4

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const form4XML = `<?xml version="1.0"?>
<ownershipDocument>
  <periodOfReport>2026-08-18</periodOfReport>
  <issuer>
    <issuerCik>0001658566</issuerCik>
    <issuerName>Permian Resources Corp</issuerName>
    <issuerTradingSymbol>PR</issuerTradingSymbol>
  </issuer>
  <reportingOwner>
    <reportingOwnerId>
      <rptOwnerCik>0001234567</rptOwnerCik>
      <rptOwnerName>Morgan Dana</rptOwnerName>
    </reportingOwnerId>
    <reportingOwnerRelationship>
      <isDirector>1</isDirector>
      <isOfficer>1</isOfficer>
      <officerTitle>Chief Executive Officer</officerTitle>
    </reportingOwnerRelationship>
  </reportingOwner>
  <nonDerivativeTable>
    <nonDerivativeTransaction>
      <securityTitle><value>Common Stock</value></securityTitle>
      <transactionDate><value>2026-08-18</value></transactionDate>
      <transactionCoding><transactionCode>P</transactionCode></transactionCoding>
      <transactionAmounts>
        <transactionShares><value>15000</value></transactionShares>
        <transactionPricePerShare><value>13.755</value></transactionPricePerShare>
        <transactionAcquiredDisposedCode><value>A</value></transactionAcquiredDisposedCode>
      </transactionAmounts>
      <ownershipNature><directOrIndirectOwnership><value>D</value></directOrIndirectOwnership></ownershipNature>
    </nonDerivativeTransaction>
    <nonDerivativeTransaction>
      <securityTitle><value>Common Stock</value></securityTitle>
      <transactionDate><value>2026-08-18</value></transactionDate>
      <transactionCoding><transactionCode>G</transactionCode></transactionCoding>
      <transactionAmounts>
        <transactionShares><value>500</value></transactionShares>
        <transactionAcquiredDisposedCode><value>D</value></transactionAcquiredDisposedCode>
      </transactionAmounts>
    </nonDerivativeTransaction>
  </nonDerivativeTable>
  <derivativeTable>
    <derivativeTransaction>
      <securityTitle><value>Stock Option</value></securityTitle>
      <transactionDate><value>2026-08-17</value></transactionDate>
      <transactionCoding><transactionCode>M</transactionCode></transactionCoding>
      <transactionAmounts>
        <transactionShares><value>2000</value></transactionShares>
        <transactionPricePerShare><value>4.50</value></transactionPricePerShare>
        <transactionAcquiredDisposedCode><value>A</value></transactionAcquiredDisposedCode>
      </transactionAmounts>
      <underlyingSecurity><underlyingSecurityTitle><value>Common Stock</value></underlyingSecurityTitle></underlyingSecurity>
      <ownershipNature><directOrIndirectOwnership><value>I</value></directOrIndirectOwnership></ownershipNature>
    </derivativeTransaction>
  </derivativeTable>
</ownershipDocument>`

func TestParseStandaloneXML(t *testing.T) {
	f, err := Parse(form4XML)
	require.NoError(t, err)

	assert.Equal(t, "Permian Resources Corp", f.IssuerName)
	assert.Equal(t, "PR", f.IssuerSymbol)
	assert.Equal(t, "Morgan Dana", f.OwnerName)
	assert.Equal(t, "officer/director", f.Relationship)
	assert.Equal(t, "Chief Executive Officer", f.OfficerTitle)
	assert.Equal(t, 0, f.CoOwnerCount)
	assert.Equal(t, "2026-08-18", f.PeriodOfReport)

	// The G-coded transaction is dropped.
	require.Len(t, f.Transactions, 2)

	buy := f.Transactions[0]
	assert.Equal(t, "insider_buy", buy.EventType)
	assert.Equal(t, "purchase", buy.TransactionType)
	assert.Equal(t, "P", buy.Code)
	assert.Equal(t, "2026-08-18", buy.Date)
	require.NotNil(t, buy.Shares)
	assert.Equal(t, 15000.0, *buy.Shares)
	require.NotNil(t, buy.TotalValue)
	assert.Equal(t, 206325.0, *buy.TotalValue)
	assert.Equal(t, "A", buy.AcquiredDisposed)
	assert.Equal(t, "D", buy.Ownership)
	assert.False(t, buy.Derivative)

	exercise := f.Transactions[1]
	assert.Equal(t, "insider_option_exercise", exercise.EventType)
	assert.Equal(t, "exercise", exercise.TransactionType)
	assert.True(t, exercise.Derivative)
	assert.Equal(t, "Common Stock", exercise.UnderlyingSecurityTitle)
	require.NotNil(t, exercise.TotalValue)
	assert.Equal(t, 9000.0, *exercise.TotalValue)
}

func TestParseSGMLWrapper(t *testing.T) {
	sgml := "-----BEGIN PRIVACY-ENHANCED MESSAGE-----\n" +
		"<SEC-DOCUMENT>0001178879-26-000010.txt\n<SEC-HEADER>\nACCESSION NUMBER: 0001178879-26-000010\n</SEC-HEADER>\n" +
		"<DOCUMENT>\n<TYPE>4\n<SEQUENCE>1\n<FILENAME>form4.xml\n<TEXT>\n<XML>\n" +
		form4XML +
		"\n</XML>\n</TEXT>\n</DOCUMENT>\n</SEC-DOCUMENT>\n"

	f, err := Parse(sgml)
	require.NoError(t, err)
	assert.Equal(t, "Morgan Dana", f.OwnerName)
	assert.Len(t, f.Transactions, 2)
}

func TestParseSellClassification(t *testing.T) {
	doc := `<ownershipDocument>
  <reportingOwner>
    <reportingOwnerId><rptOwnerName>Cole Ryan</rptOwnerName></reportingOwnerId>
    <reportingOwnerRelationship><isTenPercentOwner>true</isTenPercentOwner><isOther>1</isOther></reportingOwnerRelationship>
  </reportingOwner>
  <nonDerivativeTable>
    <nonDerivativeTransaction>
      <transactionDate><value>2026-07-01</value></transactionDate>
      <transactionCoding><transactionCode>S</transactionCode></transactionCoding>
      <transactionAmounts>
        <transactionShares><value>100</value></transactionShares>
      </transactionAmounts>
    </nonDerivativeTransaction>
  </nonDerivativeTable>
</ownershipDocument>`

	f, err := Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, "10% owner/other", f.Relationship)
	require.Len(t, f.Transactions, 1)
	assert.Equal(t, "insider_sell", f.Transactions[0].EventType)
	assert.Equal(t, "sale", f.Transactions[0].TransactionType)
	// No price: total value stays unset.
	assert.Nil(t, f.Transactions[0].TotalValue)
}

func TestParseCoOwnerCount(t *testing.T) {
	doc := `<ownershipDocument>
  <reportingOwner>
    <reportingOwnerId><rptOwnerName>First Owner</rptOwnerName></reportingOwnerId>
    <reportingOwnerRelationship><isDirector>1</isDirector></reportingOwnerRelationship>
  </reportingOwner>
  <reportingOwner>
    <reportingOwnerId><rptOwnerName>Second Owner</rptOwnerName></reportingOwnerId>
  </reportingOwner>
  <reportingOwner>
    <reportingOwnerId><rptOwnerName>Third Owner</rptOwnerName></reportingOwnerId>
  </reportingOwner>
</ownershipDocument>`

	f, err := Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, "First Owner", f.OwnerName)
	assert.Equal(t, 2, f.CoOwnerCount)
}

func TestParseNoOwnershipDocument(t *testing.T) {
	_, err := Parse("<html><body>not a filing</body></html>")
	assert.ErrorIs(t, err, ErrNoOwnershipDocument)
}

func TestParseInnermostDocumentWins(t *testing.T) {
	nested := "<ownershipDocument><broken>" + form4XML
	f, err := Parse(nested)
	require.NoError(t, err)
	assert.Equal(t, "Morgan Dana", f.OwnerName)
}
