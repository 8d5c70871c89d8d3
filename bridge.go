// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tdm

import (
	"code.hybscloud.com/kont"
)

// Reify converts a Cont-world task to Expr-world. The resulting Expr
// can be stepped with [Step] and [Advance].
func Reify[A any](task kont.Eff[A]) kont.Expr[A] {
	return kont.Reify(task)
}

// Reflect converts an Expr-world task to Cont-world. The resulting Eff
// can be evaluated with [Exec] or [Drive].
func Reflect[A any](task kont.Expr[A]) kont.Eff[A] {
	return kont.Reflect(task)
}
