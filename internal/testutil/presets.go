package testutil

// WithSupplyChainData assembles the standard two-party fixture used across
// packages:
//
//	factory (alice, operator carol) ── batch ── cast → machine
//	warehouse (bob) ── crate ── receive
//
// "machine" cites "cast"; "receive" is the crate's only step. The warehouse
// holds an approval on "machine" so cross-party merge scenarios can start
// immediately.
func (b *Builder) WithSupplyChainData() *Builder {
	return b.
		WithNode("factory", "alice").
		WithNode("warehouse", "bob").
		WithOperator("factory", "carol").
		WithItem("batch", "factory").
		WithItem("crate", "warehouse").
		WithStep("cast", "factory", "batch").
		WithStep("machine", "factory", "batch", "cast").
		WithStep("receive", "warehouse", "crate").
		WithApproval("machine", "warehouse")
}
