package llm

import "testing"

func testTable(t *testing.T) *modelTable {
	t.Helper()
	table, err := newModelTable([]ModelCapabilities{
		{Provider: KindGemini, Name: "gemini-2.5-pro", Aliases: []string{"pro"}},
		{Provider: KindGemini, Name: "gemini-2.5-flash", Aliases: []string{"flash"}},
	})
	if err != nil {
		t.Fatalf("newModelTable: %v", err)
	}
	return table
}

func TestModelTableResolve(t *testing.T) {
	table := testTable(t)

	cases := []struct{ in, want string }{
		{"pro", "gemini-2.5-pro"},
		{"PRO", "gemini-2.5-pro"},
		{"gemini-2.5-pro", "gemini-2.5-pro"},
		{"GEMINI-2.5-FLASH", "gemini-2.5-flash"},
		{"unknown-model", "unknown-model"},
	}
	for _, tc := range cases {
		if got := table.resolve(tc.in); got != tc.want {
			t.Errorf("resolve(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestModelTableDuplicateName(t *testing.T) {
	_, err := newModelTable([]ModelCapabilities{
		{Name: "m1"},
		{Name: "M1"},
	})
	if err == nil {
		t.Fatal("duplicate canonical name should fail")
	}
}

func TestModelTableAliasCollision(t *testing.T) {
	_, err := newModelTable([]ModelCapabilities{
		{Name: "m1", Aliases: []string{"shared"}},
		{Name: "m2", Aliases: []string{"shared"}},
	})
	if err == nil {
		t.Fatal("alias mapping to two models should fail")
	}

	_, err = newModelTable([]ModelCapabilities{
		{Name: "m1"},
		{Name: "m2", Aliases: []string{"m1"}},
	})
	if err == nil {
		t.Fatal("alias colliding with another model's name should fail")
	}
}

func TestAllKnownNamesNoDuplicates(t *testing.T) {
	tables := map[string]*modelTable{}
	for name, build := range map[string]func() []ModelCapabilities{
		"gemini":    geminiModels,
		"openai":    openaiModels,
		"anthropic": anthropicModels,
		"xai":       xaiModels,
	} {
		table, err := newModelTable(build())
		if err != nil {
			t.Fatalf("%s table: %v", name, err)
		}
		tables[name] = table
	}

	for name, table := range tables {
		seen := make(map[string]bool)
		for _, entry := range table.allKnownNames() {
			if seen[entry] {
				t.Errorf("%s: %q appears twice in allKnownNames", name, entry)
			}
			seen[entry] = true
		}
		// Every alias resolves to a record that exists.
		for _, entry := range table.allKnownNames() {
			if _, ok := table.lookup(entry); !ok {
				t.Errorf("%s: known name %q does not resolve", name, entry)
			}
		}
	}
}

func TestBuiltinThinkingBudgets(t *testing.T) {
	table, err := newModelTable(geminiModels())
	if err != nil {
		t.Fatal(err)
	}
	pro, ok := table.lookup("pro")
	if !ok {
		t.Fatal("pro alias missing")
	}
	if !pro.SupportsExtendedThinking || pro.MaxThinkingTokens != 32768 {
		t.Errorf("gemini-2.5-pro thinking = (%v, %d), want (true, 32768)",
			pro.SupportsExtendedThinking, pro.MaxThinkingTokens)
	}
	lite, ok := table.lookup("flashlite")
	if !ok {
		t.Fatal("flashlite alias missing")
	}
	if lite.SupportsExtendedThinking {
		t.Error("gemini-2.0-flash-lite should not support thinking")
	}
}
