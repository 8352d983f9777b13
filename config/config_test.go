package config

import "testing"

func TestDefaultEnablesConvertUnknownOID(t *testing.T) {
	if !Default().ConvertUnknownOID {
		t.Fatalf("expected ConvertUnknownOID to default to true")
	}
}
