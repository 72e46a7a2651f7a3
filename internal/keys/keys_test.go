package keys

import (
	"strings"
	"testing"
)

func TestTemplateSignature_OrderIndependent(t *testing.T) {
	a := TemplateSignature([]string{"Title", "Name"})
	b := TemplateSignature([]string{"Name", "Title"})
	if a != b {
		t.Errorf("expected equal signatures, got %q and %q", a, b)
	}
}

func TestTemplateSignature_IgnoresDuplicates(t *testing.T) {
	a := TemplateSignature([]string{"Title"})
	b := TemplateSignature([]string{"Title", "Title"})
	if a != b {
		t.Errorf("duplicates should not change the signature: %q vs %q", a, b)
	}
}

func TestTemplateSignature_SetEquality(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
	}{
		{"subset", []string{"Title"}, []string{"Title", "Name"}},
		{"superset", []string{"Title", "Name", "Text"}, []string{"Title", "Name"}},
		{"disjoint", []string{"Title"}, []string{"Name"}},
		{"empty vs one", nil, []string{"Title"}},
		{"joined names", []string{"ab", "c"}, []string{"a", "bc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if TemplateSignature(tt.a) == TemplateSignature(tt.b) {
				t.Errorf("expected different signatures for %v and %v", tt.a, tt.b)
			}
		})
	}
}

func TestTemplateSignature_Format(t *testing.T) {
	s := TemplateSignature([]string{"Title"})
	if len(s) != 32 {
		t.Errorf("expected 32 hex chars, got %d: %q", len(s), s)
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			t.Errorf("expected hex character, got %c", c)
		}
	}
}

func TestTemplateSignature_Empty(t *testing.T) {
	if TemplateSignature(nil) != TemplateSignature([]string{}) {
		t.Error("nil and empty name sets should share a signature")
	}
}

func TestRelationshipPK_SingleShard(t *testing.T) {
	tests := []struct {
		parentRef string
		childRef  string
		expected  string
	}{
		{"item#{A}", "item#{B}", "item#{A}#00"},
		{"item#{A}", "item#{C}", "item#{A}#00"},
		{"item#{D}", "item#{B}", "item#{D}#00"},
	}

	for _, tt := range tests {
		for _, shards := range []int{1, 0, -1} {
			result := RelationshipPK(tt.parentRef, tt.childRef, shards)
			if result != tt.expected {
				t.Errorf("RelationshipPK(%q, %q, %d) = %q, want %q",
					tt.parentRef, tt.childRef, shards, result, tt.expected)
			}
		}
	}
}

func TestRelationshipPK_Distribution(t *testing.T) {
	parentRef := "item#{A}"
	counts := make(map[string]int)
	for i := 0; i < 1000; i++ {
		childRef := "item#" + string(rune('a'+i%26)) + string(rune('0'+i%10)) + strings.Repeat("x", i%7)
		pk := RelationshipPK(parentRef, childRef, 64)
		if !strings.HasPrefix(pk, parentRef+"#") {
			t.Fatalf("expected prefix %q#, got %q", parentRef, pk)
		}
		counts[pk[len(parentRef)+1:]]++
	}
	if len(counts) < 10 {
		t.Errorf("expected distribution across shards, got %d", len(counts))
	}
}

func TestRelationshipPK_Deterministic(t *testing.T) {
	first := RelationshipPK("item#{A}", "item#{B}", 256)
	for i := 0; i < 100; i++ {
		if got := RelationshipPK("item#{A}", "item#{B}", 256); got != first {
			t.Fatalf("expected %q, got %q", first, got)
		}
	}
}

func TestShardPK(t *testing.T) {
	if got := ShardPK("item#{A}", 10); got != "item#{A}#0a" {
		t.Errorf("unexpected shard pk %q", got)
	}
}

func BenchmarkTemplateSignature(b *testing.B) {
	names := []string{"Title", "Text", "Image", "Link", "Summary"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		TemplateSignature(names)
	}
}
