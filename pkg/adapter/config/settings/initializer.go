// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package settings

// Default makes the nil (*dst) pointer to point to a copy of the def
// value. A non-nil (*dst) is kept intact.
func Default[T any](dst **T, def T) {
	if (*dst) != nil {
		return
	}
	(*dst) = &def
}
