package testutil

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"jobsync/internal/feedapi"
)

// CurrentFeed renders a valid current-dialect feed for buid holding one job
// per uid. Every job is located in Indianapolis and classified 15-1021.00.
func CurrentFeed(buid int64, company string, uids ...int64) string {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<source>\n")
	fmt.Fprintf(&b, "  <job_source_id>%d</job_source_id>\n", buid)
	fmt.Fprintf(&b, "  <job_source_name>%s</job_source_name>\n", company)
	b.WriteString("  <date_modified>5/17/2012 12:01:05 PM</date_modified>\n")
	b.WriteString("  <jobs>\n")
	for _, uid := range uids {
		fmt.Fprintf(&b, `    <job>
      <uid>%[1]d</uid>
      <title>Job %[1]d</title>
      <description>Description of job %[1]d.</description>
      <link>http://example.com/jobs/%[1]d</link>
      <hitkey>HK%[1]d</hitkey>
      <reqid>REQ-%[1]d</reqid>
      <city>Indianapolis</city>
      <state>Indiana</state>
      <state_short>IN</state_short>
      <country>United States</country>
      <country_short>USA</country_short>
      <zip>46204</zip>
      <onet_code>15-1021.00</onet_code>
      <date_created>5/10/2012 9:15:00 AM</date_created>
      <date_modified>5/16/2012 04:30:10 PM</date_modified>
    </job>
`, uid)
	}
	b.WriteString("  </jobs>\n</source>\n")
	return b.String()
}

// WriteFeed writes content as the feed document of buid inside dir and
// returns its path.
func WriteFeed(t *testing.T, dir string, buid int64, content string) string {
	t.Helper()

	path := feedapi.FeedPath(dir, buid)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write feed: %v", err)
	}
	return path
}
