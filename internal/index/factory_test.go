package index

import "testing"

func TestNew_defaultsToMemory(t *testing.T) {
	idx, err := New(Options{Collection: "docs"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := idx.(*MemoryIndex); !ok {
		t.Errorf("got %T", idx)
	}
}

func TestNew_memory(t *testing.T) {
	idx, err := New(Options{Type: "memory"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := idx.(*MemoryIndex); !ok {
		t.Errorf("got %T", idx)
	}
}

func TestNew_chroma(t *testing.T) {
	idx, err := New(Options{Type: "chroma", Host: "example", Port: 9000, Collection: "docs"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := idx.(*ChromaIndex); !ok {
		t.Errorf("got %T", idx)
	}
}

func TestNew_unknownType(t *testing.T) {
	if _, err := New(Options{Type: "pinecone"}); err == nil {
		t.Error("unknown type should fail")
	}
}
