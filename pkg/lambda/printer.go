package lambda

import "strings"

// Print renders a term in the syntax accepted by Parse. Application spines
// are flattened, so ((f a) b) prints as (f a b).
func Print(t Term) string {
	var b strings.Builder
	printTerm(&b, t)
	return b.String()
}

func printTerm(b *strings.Builder, t Term) {
	switch t := t.(type) {
	case *Var:
		b.WriteString(t.Name)
	case *Lam:
		b.WriteString("λ")
		b.WriteString(t.Param)
		b.WriteByte('.')
		printTerm(b, t.Body)
	case *App:
		var args []Term
		var head Term = t
		for {
			app, ok := head.(*App)
			if !ok {
				break
			}
			args = append(args, app.Arg)
			head = app.Fun
		}
		b.WriteByte('(')
		printTerm(b, head)
		for i := len(args) - 1; i >= 0; i-- {
			b.WriteByte(' ')
			printTerm(b, args[i])
		}
		b.WriteByte(')')
	case *Let:
		b.WriteByte('@')
		b.WriteString(t.Name)
		b.WriteByte(' ')
		printTerm(b, t.Value)
		b.WriteByte(' ')
		printTerm(b, t.Body)
	case nil:
		b.WriteString("<nil>")
	}
}
