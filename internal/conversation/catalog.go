package conversation

import (
	"fmt"
	"strings"
)

// ProblemCatalog is the fixed enumeration presented at the problem-choice
// step. The last entry switches the wizard to free-text input.
var ProblemCatalog = []string{
	"No electricity in the room",
	"Light fixture needs replacement",
	"No hot water",
	"No cold water",
	"Leaking tap or pipe",
	"Clogged drain",
	"Heating not working",
	"Broken window",
	"Broken door or lock",
	"Broken furniture",
	"No wired internet connection",
	"Weak Wi-Fi signal",
	"Electrical socket not working",
	"Elevator not working",
	"Pest control needed",
	"Describe the problem yourself",
}

// CustomProblemKey is the 1-based catalog key that opens free-text input.
var CustomProblemKey = len(ProblemCatalog)

// CatalogText renders the numbered catalog for a prompt.
func CatalogText() string {
	var b strings.Builder
	for i, label := range ProblemCatalog {
		fmt.Fprintf(&b, "%d. %s\n", i+1, label)
	}
	return strings.TrimRight(b.String(), "\n")
}

// CatalogLabel returns the label for a 1-based key, or false when the key
// is out of range.
func CatalogLabel(key int) (string, bool) {
	if key < 1 || key > len(ProblemCatalog) {
		return "", false
	}
	return ProblemCatalog[key-1], true
}
