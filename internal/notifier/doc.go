// Package notifier is the scheduling core: a thin service over a
// platform.Platform that builds requests, registers bundled action types,
// submits, lists and cancels notifications.
//
// # Submission
//
// Submit is a two-phase protocol. Bundled action types are registered first,
// then the request is scheduled. The phases are not transactional: when
// scheduling fails after registration succeeded, Submit returns a
// *notification.PartialRegistrationError and leaves the registration in place.
//
// # Listeners
//
// Initialize subscribes the delivered and actionPerformed listeners once and
// returns them as an owned *Subscriptions handle. Closing the handle removes
// both listeners and allows Initialize to run again.
//
// # Ids
//
// Ids are drawn at random. With IDPolicyChecked, each draw is compared against
// the platform's pending set before use.
package notifier
