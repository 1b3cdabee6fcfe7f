package jsx

import "testing"

func TestTags(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		want      []string
		wantSelfs []bool
	}{
		{
			name:      "self-closing and open",
			code:      `<div><img src="/a.png" /><img src="/b.png"></div>`,
			want:      []string{`src="/a.png"`, `src="/b.png"`},
			wantSelfs: []bool{true, false},
		},
		{
			name:      "arrow function in attribute",
			code:      `<img src="/a.png" onLoad={() => x > 1} />`,
			want:      []string{`src="/a.png" onLoad={() => x > 1}`},
			wantSelfs: []bool{true},
		},
		{
			name:      "quoted gt",
			code:      `<img alt="a > b" />`,
			want:      []string{`alt="a > b"`},
			wantSelfs: []bool{true},
		},
		{
			name:      "nested jsx in attribute",
			code:      `<img icon={<Icon size={2} />} />`,
			want:      []string{`icon={<Icon size={2} />}`},
			wantSelfs: []bool{true},
		},
		{
			name:      "template literal with brace",
			code:      "<img src={`/x/${id}}`} />",
			want:      []string{"src={`/x/${id}}`}"},
			wantSelfs: []bool{true},
		},
		{
			name: "longer names are not matches",
			code: `<imgX /><imgs></imgs>`,
		},
		{
			name:      "bare tag",
			code:      `<img/>`,
			want:      []string{""},
			wantSelfs: []bool{true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tags(tt.code, "img")
			if len(got) != len(tt.want) {
				t.Fatalf("Tags() found %d tags, want %d: %+v", len(got), len(tt.want), got)
			}
			for i, tag := range got {
				if tag.Attrs != tt.want[i] {
					t.Errorf("tag %d Attrs = %q, want %q", i, tag.Attrs, tt.want[i])
				}
				if tag.SelfClosing != tt.wantSelfs[i] {
					t.Errorf("tag %d SelfClosing = %v, want %v", i, tag.SelfClosing, tt.wantSelfs[i])
				}
				if tt.code[tag.Start] != '<' || tt.code[tag.End-1] != '>' {
					t.Errorf("tag %d span %d:%d is not a tag", i, tag.Start, tag.End)
				}
			}
		})
	}
}

func TestElements(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		want     []string
		children []string
	}{
		{
			name:     "paired",
			code:     `x <Card a={1}>body</Card> y`,
			want:     []string{`<Card a={1}>body</Card>`},
			children: []string{"body"},
		},
		{
			name:     "self-closing",
			code:     `<Card onClick={() => go()} />`,
			want:     []string{`<Card onClick={() => go()} />`},
			children: []string{""},
		},
		{
			name:     "nested same name belongs to parent",
			code:     `<Card><Card>in</Card><Card /></Card><Card />`,
			want:     []string{`<Card><Card>in</Card><Card /></Card>`, `<Card />`},
			children: []string{`<Card>in</Card><Card />`, ""},
		},
		{
			name:     "closing tag with space",
			code:     `<Card show={n > 1}>x</Card >`,
			want:     []string{`<Card show={n > 1}>x</Card >`},
			children: []string{"x"},
		},
		{
			name:     "unclosed spans the tag",
			code:     `<Card title="t">dangling`,
			want:     []string{`<Card title="t">`},
			children: []string{""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Elements(tt.code, "Card")
			if len(got) != len(tt.want) {
				t.Fatalf("Elements() found %d, want %d: %+v", len(got), len(tt.want), got)
			}
			for i, el := range got {
				if span := tt.code[el.Start:el.End]; span != tt.want[i] {
					t.Errorf("element %d = %q, want %q", i, span, tt.want[i])
				}
				if c := el.Children(tt.code); c != tt.children[i] {
					t.Errorf("element %d children = %q, want %q", i, c, tt.children[i])
				}
			}
		})
	}
}
