package ast

type Visitor interface {
	VisitNumber(number *Number)
	VisitBinaryOperation(binaryOp *BinaryOperation)
}
