package scraper

import (
	"encoding/xml"
	"strings"
)

// ajaxEnvelope is the XML wrapper the incremental allocation-load endpoint
// returns: the actual HTML fragment sits inside a CDATA section. No
// library in the dependency pool unwraps a CDATA envelope more directly
// than encoding/xml's native `,cdata` struct tag (see DESIGN.md).
type ajaxEnvelope struct {
	XMLName xml.Name `xml:"response"`
	Content struct {
		HTML string `xml:",cdata"`
	} `xml:"content"`
}

// unwrapCDATAEnvelope extracts the HTML fragment from the XML envelope.
// A body that isn't XML-wrapped (plain HTML) is returned unchanged, since
// some deployments skip the envelope entirely for non-AJAX requests.
func unwrapCDATAEnvelope(body string) (string, error) {
	trimmed := strings.TrimSpace(body)
	if !strings.HasPrefix(trimmed, "<?xml") && !strings.HasPrefix(trimmed, "<response") {
		return body, nil
	}
	var env ajaxEnvelope
	if err := xml.Unmarshal([]byte(body), &env); err != nil {
		return "", err
	}
	return env.Content.HTML, nil
}
