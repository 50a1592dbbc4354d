// Package parser turns JMC source text into a syntax tree and diagnostics for
// the language server.
//
// # Architecture
//
//	┌─────────────┐     ┌─────────────┐     ┌─────────────┐
//	│    Text     │────▶│    Lexer    │────▶│   Parser    │
//	│  (string)   │     │ raw/trimmed │     │  (cursor)   │
//	└─────────────┘     └─────────────┘     └─────────────┘
//	                           │                   │
//	                           ▼                   ▼
//	                    ┌─────────────┐     ┌─────────────┐
//	                    │   Mapper    │     │    Tree     │
//	                    │ offset/pos  │     │ nodes+diags │
//	                    └─────────────┘     └─────────────┘
//
// # Tokens
//
// Lex produces two parallel arrays. Raw entries concatenate back to the
// input exactly, whitespace runs included; Trimmed holds the same entries
// with whitespace stripped, so whitespace runs appear as "". The parser
// matches on Trimmed and the Mapper measures offsets on Raw, which keeps
// ranges exact regardless of what trimming removed.
//
// # Parsing
//
// The parser walks a cursor over Trimmed, skipping empty and comment entries.
// Keywords, operators and punctuation are dispatched by exact match; other
// tokens go through Classify. class, function, import and new start compound
// constructs whose headers are checked with a non-consuming lookahead. A
// `$variable` followed by an assignment operator starts a statement that
// runs to the next `;`.
//
// Malformed input never aborts the parse. Every structural mismatch records
// an Error diagnostic and the parser resynchronizes at the next token it can
// make sense of.
//
// # Example
//
//	tree := parser.NewTree(parser.WithFileTypes(registry))
//	if err := tree.Initialize(ctx, `class Foo { function bar() {} }`); err != nil {
//	    return err
//	}
//	for _, d := range tree.Diagnostics() {
//	    fmt.Println(d.Range, d.Message)
//	}
//	tree.PrintPretty(os.Stdout)
//	// └── Class Foo [0:0-0:30]
//	//     └── Function bar [0:12-0:28]
//	//         └── Block  [0:27-0:28]
package parser
