// Package archive decides where each workbook lives inside the output zip and
// writes the zip.
package archive

import (
	"fmt"
	"path"
	"strings"

	"github.com/andresuchdata/slotx-reports/internal/domain"
)

const (
	root             = "Reports"
	folderNoDeal     = "No Deal"
	folderEmptyBrand = "Empty Brand Guard"
	workbookExt      = ".xlsx"
)

var nameSanitizer = strings.NewReplacer("/", "-", `\`, "-", ":", "-")

// SanitizeName makes a display name safe as a single path segment.
func SanitizeName(display string) string {
	return strings.TrimSpace(nameSanitizer.Replace(display))
}

// PathFor returns the archive entry for a brand workbook. Skipped brands
// have no entry and return ok=false.
//
//	PathFor(Alexandria, Report, "Nike")  -> "Reports/Alexandria/Nike.xlsx"
//	PathFor(Merged, NoDeal, "Zara")      -> "Reports/Merged/No Deal/Zara.xlsx"
func PathFor(branchType domain.Branch, class domain.Classification, display string) (string, bool) {
	name := SanitizeName(display) + workbookExt
	bt := string(branchType)
	switch class {
	case domain.ClassificationReport:
		return path.Join(root, bt, name), true
	case domain.ClassificationNoDeal:
		return path.Join(root, bt, folderNoDeal, name), true
	case domain.ClassificationEmptyBrandGuard:
		return path.Join(root, bt, folderEmptyBrand, name), true
	}
	return "", false
}

// SummaryPath is the branch summary entry of a single-branch run.
func SummaryPath(mode domain.Branch) string {
	return path.Join(root, string(mode), fmt.Sprintf("%s_Summary%s", mode, workbookExt))
}

// FileName is the name offered for the downloaded archive.
func FileName(mode domain.Branch, cycle domain.PayoutCycle) string {
	return fmt.Sprintf("SlotX_Reports_%s_%s.zip", mode, cycle)
}
