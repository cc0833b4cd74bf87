package decompiler

import (
	"encoding/binary"
	"math"

	"github.com/bnb-chain/ildecompiler/core/ast"
	"github.com/bnb-chain/ildecompiler/core/metadata"
)

// foldArrayInit recognizes
//
//	push new T[n]; InitializeArray(dup, field)
//
// and decodes the field's data blob into the array's element initializers.
func (c *context) foldArrayInit(b *ast.Block, i int) bool {
	if i+1 >= len(b.Stmts) {
		return false
	}
	push, ok := b.Stmts[i].(*ast.Push)
	if !ok {
		return false
	}
	arr, ok := push.X.(*ast.NewArray)
	if !ok || len(arr.Sizes) != 1 || arr.Initializers != nil {
		return false
	}
	size, ok := arr.Sizes[0].(*ast.Constant)
	if !ok {
		return false
	}
	n, ok := size.IntValue()
	if !ok || n <= 0 {
		return false
	}
	es, ok := b.Stmts[i+1].(*ast.ExprStmt)
	if !ok {
		return false
	}
	call, ok := es.X.(*ast.Call)
	if !ok || call.Method.Name != "InitializeArray" || len(call.Args) != 2 {
		return false
	}
	if _, ok := call.Args[0].(*ast.DupValue); !ok {
		return false
	}
	tok, ok := call.Args[1].(*ast.TokenOf)
	if !ok {
		return false
	}
	field, ok := tok.Token.(*metadata.Field)
	if !ok {
		return false
	}
	values, ok := decodeElements(arr.Elem, field.InitialValue, int(n))
	if !ok {
		return false
	}
	arr.Initializers = values
	mergePos(&push.Pos, es)
	b.Stmts = splice(b.Stmts, i+1, i+2)
	arrayInitCounter.Inc(1)
	c.debug("Folded array initializer", "field", field, "elements", n)
	return true
}

// decodeElements reads n little-endian primitives of type elem from data.
func decodeElements(elem *metadata.Type, data []byte, n int) ([]ast.Expr, bool) {
	size := elem.Size()
	switch elem.Code {
	case metadata.IntPtr, metadata.UIntPtr:
		return nil, false
	}
	if size == 0 || len(data) < size*n {
		return nil, false
	}
	out := make([]ast.Expr, n)
	for i := 0; i < n; i++ {
		raw := data[i*size : (i+1)*size]
		var v any
		switch elem.Code {
		case metadata.Boolean:
			v = raw[0] != 0
		case metadata.Int8:
			v = int32(int8(raw[0]))
		case metadata.UInt8:
			v = int32(raw[0])
		case metadata.Int16:
			v = int32(int16(binary.LittleEndian.Uint16(raw)))
		case metadata.UInt16, metadata.Char:
			v = int32(binary.LittleEndian.Uint16(raw))
		case metadata.Int32:
			v = int32(binary.LittleEndian.Uint32(raw))
		case metadata.UInt32:
			v = int64(binary.LittleEndian.Uint32(raw))
		case metadata.Int64, metadata.UInt64:
			v = int64(binary.LittleEndian.Uint64(raw))
		case metadata.Float32:
			v = math.Float32frombits(binary.LittleEndian.Uint32(raw))
		case metadata.Float64:
			v = math.Float64frombits(binary.LittleEndian.Uint64(raw))
		default:
			return nil, false
		}
		out[i] = ast.NewConstant(v, elem)
	}
	return out, true
}
