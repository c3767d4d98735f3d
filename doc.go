// Package auth is the authentication and authorization core of the
// blogify backend: credential verification, bearer token issuance, email
// activation, and role-based route protection.
//
// Account lifecycle:
//   - Registration creates a disabled Customer with the default ROLE_USER
//     role and a six digit activation code, all in one transaction. The
//     code is mailed after commit; delivery failures are logged, never
//     surfaced.
//   - Redeeming the code enables the account and consumes the code. An
//     expired code is replaced and re-mailed in the same request while
//     redemption still fails, so the inbox always ends up with a working
//     code.
//   - Login gates on activation and locks, folds unknown-email and
//     wrong-password into one error, and mints an HS256 bearer token
//     whose subject is the customer email.
//
// Authorization:
//   - The authware filter resolves tokens to a Principal carrying the
//     customer and its roles, loaded from the store on every request so
//     role changes take effect without re-issuing tokens.
//   - AccessPolicy is an ordered method/pattern rule table with any-of
//     role sets; authware.Guard and authware.RequireAny enforce it.
package auth
