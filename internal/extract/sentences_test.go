package extract

import "testing"

func TestSentences_PlainText(t *testing.T) {
	got := Sentences("The Eiffel Tower is in Paris. It was completed in 1889. Is it tall?")

	if len(got) != 3 {
		t.Fatalf("got %d sentences: %+v", len(got), got)
	}
	for i, s := range got {
		if s.ID != i {
			t.Errorf("sentence %d has id %d", i, s.ID)
		}
	}
	if got[1].Text != "It was completed in 1889." {
		t.Errorf("sentence 1 = %q", got[1].Text)
	}
}

func TestSentences_NoTrailingTerminator(t *testing.T) {
	got := Sentences("Water boils at 100C")
	if len(got) != 1 || got[0].Text != "Water boils at 100C" {
		t.Fatalf("got %+v", got)
	}
}

func TestSentences_DecimalNotSplit(t *testing.T) {
	got := Sentences("The tower is 330.5 meters tall. It has 3 levels.")
	if len(got) != 2 {
		t.Fatalf("decimal point split a sentence: %+v", got)
	}
}

func TestSentences_HTMLInput(t *testing.T) {
	page := `<html><head><style>p{color:red}</style><script>alert(1)</script></head>` +
		`<body><p>The Eiffel Tower is in Paris.</p><p>It opened in 1889.</p></body></html>`

	got := Sentences(page)
	if len(got) != 2 {
		t.Fatalf("got %d sentences: %+v", len(got), got)
	}
	for _, s := range got {
		if s.Text == "alert(1)" || s.Text == "p{color:red}" {
			t.Errorf("non-content text leaked: %q", s.Text)
		}
	}
}

func TestSentences_Empty(t *testing.T) {
	if got := Sentences("   "); len(got) != 0 {
		t.Fatalf("got %+v from whitespace input", got)
	}
}
