package schema

import (
	"github.com/invopop/jsonschema"
)

func generateSchema[T any]() *jsonschema.Schema {
	r := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return r.Reflect(v)
}

// EventMappingSchema describes a single entry of the event-to-animation table.
// Tools that author new mappings validate against it.
var EventMappingSchema = generateSchema[EventMapping]()

var EventLogEntrySchema = generateSchema[EventLogEntry]()
