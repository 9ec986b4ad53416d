package descriptor

import (
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/jbweber/vmsnap/internal/errdefs"
)

// Query evaluates an XPath expression against an XML document and returns
// the text content of the first matching node, trimmed of surrounding
// whitespace.
//
// A valid expression with no match returns an error wrapping
// errdefs.ErrMissingAttribute.
func Query(doc, expr string) (string, error) {
	root, err := xmlquery.Parse(strings.NewReader(doc))
	if err != nil {
		return "", fmt.Errorf("failed to parse XML: %w", err)
	}

	node, err := xmlquery.Query(root, expr)
	if err != nil {
		return "", fmt.Errorf("invalid query %q: %w", expr, err)
	}
	if node == nil {
		return "", fmt.Errorf("%w: %s", errdefs.ErrMissingAttribute, expr)
	}

	return strings.TrimSpace(node.InnerText()), nil
}

// SnapshotPath returns the XPath expression for a property of a snapshot
// descriptor, e.g. "creationTime" or "domain/uuid".
func SnapshotPath(property string) string {
	return "/domainsnapshot/" + strings.TrimPrefix(property, "/")
}
