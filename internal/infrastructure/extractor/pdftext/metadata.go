package pdftext

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kirillkom/invoice-audit/internal/core/domain"
)

var (
	invoiceNumberRe = regexp.MustCompile(`(?i)invoice\s*(?:no\.?|number|#)?[:\s]\s*([A-Z0-9][A-Z0-9-]{2,})`)
	invoiceDateRe   = regexp.MustCompile(`(?i)(?:invoice\s+)?date[:\s]\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`)
	customerIDRe    = regexp.MustCompile(`(?i)customer\s*(?:no\.?|number|id)[:\s]\s*([A-Z0-9-]{2,})`)
	accountNumberRe = regexp.MustCompile(`(?i)account\s*(?:no\.?|number)[:\s]\s*([A-Z0-9-]{2,})`)

	amountRe = `[:\s$]\s*\$?\s*(-?[\d,]+\.\d{2})`

	sectionRes = map[domain.SectionKind]*regexp.Regexp{
		domain.SectionSubtotal: regexp.MustCompile(`(?i)\bsub\s*-?\s*total` + amountRe),
		domain.SectionFreight:  regexp.MustCompile(`(?i)\b(?:freight|shipping|delivery)` + amountRe),
		domain.SectionTax:      regexp.MustCompile(`(?i)\b(?:sales\s+)?tax\b` + amountRe),
		domain.SectionTotal:    regexp.MustCompile(`(?i)\b(?:invoice\s+)?total(?:\s+due)?` + amountRe),
	}
)

// parseMetadata pulls document identity and the four summary sections out
// of the extracted-text blob. Missing pieces are left empty; structural
// validity is judged downstream.
func parseMetadata(text string) domain.InvoiceMetadata {
	meta := domain.InvoiceMetadata{
		InvoiceNumber: firstGroup(invoiceNumberRe, text),
		InvoiceDate:   firstGroup(invoiceDateRe, text),
		CustomerID:    firstGroup(customerIDRe, text),
		AccountNumber: firstGroup(accountNumberRe, text),
	}

	for _, kind := range []domain.SectionKind{
		domain.SectionSubtotal, domain.SectionFreight, domain.SectionTax, domain.SectionTotal,
	} {
		match := sectionRes[kind].FindStringSubmatch(text)
		if match == nil {
			continue
		}
		amount, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", ""), 64)
		if err != nil {
			continue
		}
		meta.Sections = append(meta.Sections, domain.FormatSection{Kind: kind, Amount: amount})
	}
	return meta
}

func firstGroup(re *regexp.Regexp, text string) string {
	match := re.FindStringSubmatch(text)
	if match == nil {
		return ""
	}
	return strings.TrimSpace(match[1])
}
