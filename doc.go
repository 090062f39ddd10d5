// Package vince answers questions over a small, faceted document set.
//
// Questions are filtered by partner, country and city facets, scored against
// the remaining documents, and the top passages are handed to a generation
// backend that writes an answer citing them as [SOURCE_n].
//
//	client, _ := vince.New(
//	    vince.WithOllama("http://localhost:11434", "llama3.2"),
//	)
//	defer client.Close()
//
//	ans, _ := client.Ask(ctx, vince.Query{
//	    Question: "Do I need a residence permit to study?",
//	    TopK:     3,
//	    Filter:   vince.Filter{Country: "finland"},
//	})
//	fmt.Println(ans.Text)
//	for _, s := range ans.Sources {
//	    fmt.Println(s.File, s.Similarity)
//	}
//
// Without a generation backend, Retrieve still returns the ranked sources.
package vince
