package decl

// DataKind classifies a datatype.
type DataKind int

const (
	KindAtomic  DataKind = iota // scalar value
	KindNode                    // document or structured value
	KindSession                 // server-side session handle
)

// String returns the string representation of the data kind.
func (k DataKind) String() string {
	switch k {
	case KindAtomic:
		return "atomic"
	case KindNode:
		return "node"
	case KindSession:
		return "session"
	default:
		return "unknown"
	}
}

// ParamsKind summarizes the composition of a parameter list. It selects how
// the remote call marshals its arguments.
type ParamsKind int

const (
	ParamsEmpty       ParamsKind = iota // no positional parameters
	ParamsMultiAtomic                   // only atomic parameters
	ParamsMultiNode                     // at least one node parameter
)

// String returns the string representation of the params kind.
func (k ParamsKind) String() string {
	switch k {
	case ParamsEmpty:
		return "empty"
	case ParamsMultiAtomic:
		return "multiAtomic"
	case ParamsMultiNode:
		return "multiNode"
	default:
		return "unknown"
	}
}

// ReturnKind summarizes the shape of a function result.
type ReturnKind int

const (
	ReturnEmpty     ReturnKind = iota // no return value
	ReturnSingle                      // one value
	ReturnMultipart                   // a sequence of values
)

// String returns the string representation of the return kind.
func (k ReturnKind) String() string {
	switch k {
	case ReturnEmpty:
		return "empty"
	case ReturnSingle:
		return "single"
	case ReturnMultipart:
		return "multipart"
	default:
		return "unknown"
	}
}

// OutputMode selects how generated methods hand back results.
type OutputMode string

const (
	OutputPromise OutputMode = "promise"
	OutputStream  OutputMode = "stream"
)

// Mime types attached to normalized data descriptors.
const (
	MimeText   = "text/plain"
	MimeBinary = "application/x-unknown-content-type"
	MimeJSON   = "application/json"
	MimeXML    = "application/xml"
)

// SessionDatatype is the datatype of a session parameter.
const SessionDatatype = "session"

type datatypeInfo struct {
	kind DataKind
	mime string
}

var datatypes = map[string]datatypeInfo{
	"boolean":         {KindAtomic, MimeText},
	"date":            {KindAtomic, MimeText},
	"dateTime":        {KindAtomic, MimeText},
	"dayTimeDuration": {KindAtomic, MimeText},
	"decimal":         {KindAtomic, MimeText},
	"double":          {KindAtomic, MimeText},
	"float":           {KindAtomic, MimeText},
	"int":             {KindAtomic, MimeText},
	"long":            {KindAtomic, MimeText},
	"string":          {KindAtomic, MimeText},
	"time":            {KindAtomic, MimeText},
	"unsignedInt":     {KindAtomic, MimeText},
	"unsignedLong":    {KindAtomic, MimeText},

	"binaryDocument": {KindNode, MimeBinary},
	"array":          {KindNode, MimeJSON},
	"jsonDocument":   {KindNode, MimeJSON},
	"object":         {KindNode, MimeJSON},
	"textDocument":   {KindNode, MimeText},
	"xmlDocument":    {KindNode, MimeXML},

	SessionDatatype: {KindSession, ""},
}

// IsDatatype reports whether name is a known datatype.
func IsDatatype(name string) bool {
	_, ok := datatypes[name]
	return ok
}

// JSTypes describes the JavaScript types a return value of one datatype may
// be converted to.
type JSTypes struct {
	Default string
	Allowed []string
}

var jsTypes = map[string]JSTypes{
	"boolean":         {"boolean", []string{"boolean", "string"}},
	"date":            {"string", []string{"string"}},
	"dayTimeDuration": {"string", []string{"string"}},
	"decimal":         {"string", []string{"string"}},
	"double":          {"string", []string{"string"}},
	"long":            {"string", []string{"string"}},
	"string":          {"string", []string{"string"}},
	"time":            {"string", []string{"string"}},
	"unsignedLong":    {"string", []string{"string"}},
	"dateTime":        {"string", []string{"Date", "string"}},
	"float":           {"number", []string{"number", "string"}},
	"int":             {"number", []string{"number", "string"}},
	"unsignedInt":     {"number", []string{"number", "string"}},
}

// JSTypesFor returns the JavaScript conversions available for an atomic
// datatype. The second result is false for node, session and unknown
// datatypes.
func JSTypesFor(datatype string) (JSTypes, bool) {
	t, ok := jsTypes[datatype]
	return t, ok
}
