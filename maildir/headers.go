package maildir

import (
	"bufio"
	"io"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/textproto"

	"github.com/infodancer/mzfilter"
)

// mboxFrom starts the envelope line some delivery agents leave in place.
const mboxFrom = "From "

// ReadHeaderFields reads the header block of a message and returns the
// decoded value of every supported field. RFC 2047 encoded words are
// decoded; a field that appears more than once is joined with ", ".
// Fields absent from the message are present in the map as "".
// A leading mbox "From " separator line is skipped.
func ReadHeaderFields(r io.Reader) (mzfilter.HeaderFields, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(mboxFrom)); err == nil && string(prefix) == mboxFrom {
		if _, err := br.ReadString('\n'); err != nil {
			return nil, err
		}
	}

	th, err := textproto.ReadHeader(br)
	if err != nil {
		return nil, err
	}
	h := message.Header{Header: th}

	fields := make(mzfilter.HeaderFields, len(mzfilter.Fields()))
	for _, f := range mzfilter.Fields() {
		fields[f] = headerText(h, f.Header())
	}
	return fields, nil
}

func headerText(h message.Header, key string) string {
	var values []string
	fields := h.FieldsByKey(key)
	for fields.Next() {
		v, err := fields.Text()
		if err != nil {
			// Unknown charset: match against the raw value.
			v = fields.Value()
		}
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return strings.Join(values, ", ")
}
