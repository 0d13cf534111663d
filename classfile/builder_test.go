package classfile_test

import "github.com/rlegendi/jyzer/classfile/classfiletest"

// Short names for the byte helpers; class bytes come from classfiletest.
var (
	u2     = classfiletest.U2
	u4     = classfiletest.U4
	concat = classfiletest.Concat
)
