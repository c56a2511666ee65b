// Copyright (c) 2023 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package repo

// Tx represents a database transaction which is started on a lent
// connection. It is unsafe to be used concurrently and it may not
// outlive the Tx method call which created it. While a Tx is running,
// its parent Conn is busy and must not be used, so a handler which owns
// the lease lock must finish the transaction before unlocking it.
type Tx interface {
	Queryer

	// IsTx method prevents a non-Tx object (such as a Conn) to
	// mistakenly implement the Tx interface.
	IsTx()
}
