package notification

import (
	"bytes"
	"fmt"
	"strconv"
	"text/template"

	"github.com/shopspring/decimal"
)

var funcs = template.FuncMap{"money": money}

// money renders a numeric payload value with two decimals
func money(v any) (string, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x.StringFixed(2), nil
	case float64:
		return strconv.FormatFloat(x, 'f', 2, 64), nil
	case int:
		return decimal.NewFromInt(int64(x)).StringFixed(2), nil
	case int64:
		return decimal.NewFromInt(x).StringFixed(2), nil
	case string:
		d, err := decimal.NewFromString(x)
		if err != nil {
			return "", err
		}
		return d.StringFixed(2), nil
	default:
		return "", fmt.Errorf("cannot format %T as money", v)
	}
}

type templateSet struct {
	t *template.Template
}

// newTemplateSet parses one template per event and channel
func newTemplateSet(name string, defs map[EventType]map[Channel]string) templateSet {
	root := template.New(name).Funcs(funcs).Option("missingkey=error")
	for event, byChannel := range defs {
		for channel, text := range byChannel {
			template.Must(root.New(key(event, channel)).Parse(text))
		}
	}
	return templateSet{t: root}
}

func key(event EventType, channel Channel) string {
	return string(event) + "/" + string(channel)
}

func (s templateSet) render(event EventType, channel Channel, data Payload) (string, error) {
	t := s.t.Lookup(key(event, channel))
	if t == nil {
		return "", fmt.Errorf("no template found for channel %s", channel)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
