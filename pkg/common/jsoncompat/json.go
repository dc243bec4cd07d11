package jsoncompat

import (
	"io"

	"github.com/bytedance/sonic"
)

// api mirrors encoding/json behaviour (html escaping, sorted map keys) so
// cached responses are byte-for-byte stable.
var api = sonic.ConfigStd

func Marshal(v any) ([]byte, error) { return api.Marshal(v) }

func Unmarshal(data []byte, v any) error { return api.Unmarshal(data, v) }

func NewEncoder(w io.Writer) sonic.Encoder { return api.NewEncoder(w) }

func NewDecoder(r io.Reader) sonic.Decoder { return api.NewDecoder(r) }
