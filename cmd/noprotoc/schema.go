package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/noproto-go/noproto"
)

func readAllStdin() ([]byte, error) {
	return io.ReadAll(os.Stdin)
}

// loadSchema compiles a schema file, dispatching on its extension: .np/.idl
// for the textual IDL, .json for the JSON schema surface, .npschema for the
// compiled byte form.
func loadSchema(path string) (*noproto.Schema, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return noproto.FromJSON(data)
	case ".npschema":
		return noproto.FromBytes(data)
	default:
		return noproto.FromIDL(string(data))
	}
}

func schemaFormats() string {
	return "idl, json, bytes"
}

func parseSchemaFormat(name string) (func(*noproto.Schema) ([]byte, error), error) {
	switch name {
	case "idl":
		return func(s *noproto.Schema) ([]byte, error) { return []byte(s.IDL()), nil }, nil
	case "json":
		return func(s *noproto.Schema) ([]byte, error) { return s.JSON() }, nil
	case "bytes":
		return func(s *noproto.Schema) ([]byte, error) { return s.Bytes(), nil }, nil
	default:
		return nil, fmt.Errorf("unknown schema format %q (want one of: %s)", name, schemaFormats())
	}
}
