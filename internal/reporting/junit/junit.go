// File: internal/reporting/junit/junit.go
package junit

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/xkilldash9x/steadyhand/api/schemas"
	"github.com/xkilldash9x/steadyhand/internal/reporting"
)

// now is replaced in tests.
var now = time.Now

// Document builds a JUnit XML document with one testsuite holding a testcase
// per outcome, in the order given.
func Document(suiteName, uniqueID string, outcomes []schemas.Outcome) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	var failures int
	var total time.Duration
	for _, o := range outcomes {
		total += o.Duration
		if !o.Passed {
			failures++
		}
	}

	ts := doc.CreateElement("testsuite")
	ts.CreateAttr("name", suiteName)
	ts.CreateAttr("tests", strconv.Itoa(len(outcomes)))
	ts.CreateAttr("failures", strconv.Itoa(failures))
	ts.CreateAttr("errors", "0")
	ts.CreateAttr("time", seconds(total))
	ts.CreateAttr("timestamp", now().UTC().Format("2006-01-02T15:04:05"))

	props := ts.CreateElement("properties")
	prop := props.CreateElement("property")
	prop.CreateAttr("name", "unique_id")
	prop.CreateAttr("value", uniqueID)

	for _, o := range outcomes {
		tc := ts.CreateElement("testcase")
		tc.CreateAttr("classname", o.Descriptor.Suite)
		tc.CreateAttr("name", o.Descriptor.Method)
		tc.CreateAttr("time", seconds(o.Duration))

		if !o.Passed {
			text := o.ErrorMessage()
			if text == "" {
				text = "test failed"
			}
			f := tc.CreateElement("failure")
			f.CreateAttr("message", firstLine(text))
			f.CreateAttr("type", failureType(o.Err))
			f.SetText(text)
		}

		out := tc.CreateElement("system-out")
		out.SetText(fmt.Sprintf("attempts: %d\nsession: %s", o.Attempts, sessionOrNone(o.SessionID)))
	}

	doc.Indent(2)
	return doc
}

// Write renders the report to w.
func Write(w io.Writer, suiteName, uniqueID string, outcomes []schemas.Outcome) error {
	if _, err := Document(suiteName, uniqueID, outcomes).WriteTo(w); err != nil {
		return fmt.Errorf("failed to write junit report: %w", err)
	}
	return nil
}

// WriteFile renders the report to path; "-" or "" writes to stdout.
func WriteFile(path, suiteName, uniqueID string, outcomes []schemas.Outcome) (err error) {
	w, err := reporting.OpenOutput(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close junit report: %w", cerr)
		}
	}()
	return Write(w, suiteName, uniqueID, outcomes)
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func failureType(err error) string {
	if err == nil {
		return "failure"
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", err), "*")
}

func sessionOrNone(id string) string {
	if id == "" {
		return "none"
	}
	return id
}
