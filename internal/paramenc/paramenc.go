// Package paramenc serializes a job record's extra parameters into the
// argument string the remote job-execution service expects: a single JSON
// object whose members appear in the parameters' source order.
package paramenc

import (
	"encoding/json"
	"fmt"
	"strings"

	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/vk/flowrungo/internal/model"
)

// Encode renders params as a compact JSON object string. Members keep the
// given order, values are rendered with cty's JSON encoding, and there is no
// length limit. Encoding is a pure function of params, so repeated calls
// yield identical strings.
func Encode(params []model.Param) (string, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, p := range params {
		if i > 0 {
			b.WriteByte(',')
		}
		key, err := json.Marshal(p.Key)
		if err != nil {
			return "", fmt.Errorf("encoding parameter name %q: %w", p.Key, err)
		}
		val, err := ctyjson.Marshal(p.Value, p.Value.Type())
		if err != nil {
			return "", fmt.Errorf("encoding parameter %q: %w", p.Key, err)
		}
		b.Write(key)
		b.WriteByte(':')
		b.Write(val)
	}
	b.WriteByte('}')
	return b.String(), nil
}
