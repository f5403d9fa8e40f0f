package proxy

import (
	"testing"

	"github.com/broady/dsgen/decl"
	"github.com/broady/dsgen/jsast"
)

func TestParamType(t *testing.T) {
	tests := []struct {
		data decl.Data
		want string
	}{
		{decl.Data{Datatype: "boolean", Kind: decl.KindAtomic}, "boolean|string"},
		{decl.Data{Datatype: "int", Kind: decl.KindAtomic}, "number|string"},
		{decl.Data{Datatype: "dateTime", Kind: decl.KindAtomic}, "Date|string"},
		{decl.Data{Datatype: "long", Kind: decl.KindAtomic, Multiple: true}, "Array<string>"},
		{decl.Data{Datatype: "binaryDocument", Kind: decl.KindNode}, "Buffer|stream.Readable"},
		{decl.Data{Datatype: "object", Kind: decl.KindNode, Multiple: true}, "Array<object>"},
		{decl.Data{Datatype: "session", Kind: decl.KindSession}, "SessionState"},
	}
	for _, tt := range tests {
		if got := ParamType(tt.data); got != tt.want {
			t.Errorf("ParamType(%s) = %q, want %q", tt.data.Datatype, got, tt.want)
		}
	}
}

func TestReturnType(t *testing.T) {
	tests := []struct {
		ret  decl.Return
		want string
	}{
		{decl.Return{Data: decl.Data{Datatype: "int", Kind: decl.KindAtomic}, JSType: "number"}, "number"},
		{decl.Return{Data: decl.Data{Datatype: "int", Kind: decl.KindAtomic, Nullable: true}, JSType: "string"}, "string|null"},
		{decl.Return{Data: decl.Data{Datatype: "jsonDocument", Kind: decl.KindNode, Multiple: true}}, "Array<object|array>"},
		{decl.Return{Data: decl.Data{Datatype: "xmlDocument", Kind: decl.KindNode}}, "string"},
	}
	for _, tt := range tests {
		if got := ReturnType(&tt.ret); got != tt.want {
			t.Errorf("ReturnType(%s) = %q, want %q", tt.ret.Datatype, got, tt.want)
		}
	}
}

func TestMethodDoc(t *testing.T) {
	fn, err := decl.NormalizeFunction(&decl.FunctionDescriptor{
		FunctionName: "count",
		Params: []*decl.DataDescriptor{
			{Name: "s", Datatype: "session"},
			{Name: "q", Datatype: "string", Desc: "the query", Nullable: true},
		},
		Return: &decl.DataDescriptor{Datatype: "unsignedLong"},
	})
	if err != nil {
		t.Fatalf("NormalizeFunction() error = %v", err)
	}
	doc := methodDoc(fn)
	if doc.Summary != "Invokes the count operation on the database server." {
		t.Errorf("Summary = %q", doc.Summary)
	}
	want := []jsast.DocTag{
		{Tag: "param", Type: "string", Name: "q", Optional: true, Text: "the query"},
		{Tag: "param", Type: "SessionState", Name: "s", Optional: true, Text: "holds the server state shared across calls"},
		{Tag: "returns", Type: "Promise<string>", Text: "a promise for the result"},
	}
	if len(doc.Tags) != len(want) {
		t.Fatalf("Tags = %+v", doc.Tags)
	}
	for i := range want {
		if doc.Tags[i] != want[i] {
			t.Errorf("Tags[%d] = %+v, want %+v", i, doc.Tags[i], want[i])
		}
	}
}

func TestMethodDoc_Stream(t *testing.T) {
	fn, err := decl.NormalizeFunction(&decl.FunctionDescriptor{
		FunctionName: "all",
		Desc:         "Lists everything.",
		Return:       &decl.DataDescriptor{Datatype: "jsonDocument", Multiple: true},
		OutputMode:   "stream",
	})
	if err != nil {
		t.Fatalf("NormalizeFunction() error = %v", err)
	}
	doc := methodDoc(fn)
	if doc.Summary != "Lists everything." {
		t.Errorf("Summary = %q", doc.Summary)
	}
	last := doc.Tags[len(doc.Tags)-1]
	if last.Type != "stream.Readable" {
		t.Errorf("returns type = %q, want stream.Readable", last.Type)
	}
}
