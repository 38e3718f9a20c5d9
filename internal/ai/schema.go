package ai

import (
	"encoding/json"
	"sync"

	"github.com/invopop/jsonschema"
)

// PlanSchema is the JSON schema of PlanDocument, inlined without $refs so it
// can be pasted into a prompt or handed to a provider flag.
var PlanSchema = sync.OnceValue(func() string {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	s := r.Reflect(&PlanDocument{})
	s.Version = ""

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
})
