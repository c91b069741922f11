/*
Package dsl provides a fluent builder for declaring ticketflow workflow graphs in Go.

Example usage:

	b := dsl.New()

	b.Add("INTAKE").Do(intake).Go("DECIDE")

	b.Add("DECIDE").
		Do(decide).
		Branch("needs review", needsReview, "REVIEW").
		Go("CLOSE")

	b.Add("REVIEW").Do(review).Go("CLOSE")
	b.Add("CLOSE").Do(closeTicket).Terminal()

	g, err := b.Build()
*/
package dsl
