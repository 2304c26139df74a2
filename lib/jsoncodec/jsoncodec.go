// Package jsoncodec is the JSON codec shared by prop parsing and attribute
// bundles. It uses sonic's standard-compatible config, which sorts map keys,
// so identical values always marshal to identical bytes.
package jsoncodec

import (
	"io"

	"github.com/bytedance/sonic"
)

var defaultConfig = sonic.ConfigStd

func Marshal(v any) ([]byte, error) {
	return defaultConfig.Marshal(v)
}

func MarshalString(v any) (string, error) {
	return defaultConfig.MarshalToString(v)
}

func Unmarshal(data []byte, v any) error {
	return defaultConfig.Unmarshal(data, v)
}

func UnmarshalString(s string, v any) error {
	return defaultConfig.UnmarshalFromString(s, v)
}

func Encode(w io.Writer, v any) error {
	return defaultConfig.NewEncoder(w).Encode(v)
}

// Valid reports whether s is a single well-formed JSON value.
func Valid(s string) bool {
	return defaultConfig.Valid([]byte(s))
}
