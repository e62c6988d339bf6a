// Package junction materializes the billing events of an account with its
// blocked periods applied.
//
// Junction is designed as a library, not a service. It reads the account's
// subscriptions, their transitions and the recorded blocking states from a
// store, prices every transition against a catalog, and rewrites the
// resulting timeline so that nothing is billed while an account, bundle or
// subscription is blocked.
//
// # Quick Start
//
//	cat, err := catalog.LoadFile("catalog.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	j := junction.New(memory.New(), junction.WithCatalog(cat))
//	if err := j.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer j.Stop()
//
//	set, err := j.BillingEventsForAccount(ctx, accountID)
//
// # Blocking
//
// A blocking state says that, from its effective date on, one service
// blocks (or unblocks) billing for an account, a bundle or a subscription.
// The states of each subscription are folded into disabled durations
// [start, end), one per service and blocked object, then unioned:
//
//	2024-03-01 block   ─┐
//	2024-03-10 unblock ─┘ [2024-03-01, 2024-03-10)
//
// Within a disabled duration the calculator inserts a
// START_BILLING_DISABLED event at the start, drops the real events inside,
// and restores the previous billing state with an END_BILLING_DISABLED
// event at the end. Durations shorter than a day are ignored.
//
// Running the calculator on its own output changes nothing.
//
// # Money
//
// All monetary values use integer arithmetic. The Money type represents
// amounts in the smallest currency unit (cents for USD, pence for GBP).
//
// # TypeID
//
// All entities use TypeID for globally unique, type-safe identifiers:
//
//	acct_01h2xcejqtf2nbrexx3vqjhp41  // Account ID
//	sub_01h2xcejqtf2nbrexx3vqjhp41   // Subscription ID
//	blk_01h455vb4pex5vsknk084sn02q   // Blocking state ID
package junction
