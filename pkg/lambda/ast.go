package lambda

// Term represents a lambda calculus term. The variants are *Var, *Lam, *App
// and *Let; terms are immutable once built and may share subterms.
type Term interface {
	String() string
	isTerm()
}

// Var represents a variable usage.
type Var struct {
	Name string
}

// Lam represents an abstraction.
type Lam struct {
	Param string
	Body  Term
}

// App represents an application.
type App struct {
	Fun Term
	Arg Term
}

// Let binds Value to Name in Body. It means (λName. Body) Value, but the
// value is built once and shared by every use of Name.
type Let struct {
	Name  string
	Value Term
	Body  Term
}

func (*Var) isTerm() {}
func (*Lam) isTerm() {}
func (*App) isTerm() {}
func (*Let) isTerm() {}

func (v *Var) String() string { return Print(v) }
func (l *Lam) String() string { return Print(l) }
func (a *App) String() string { return Print(a) }
func (l *Let) String() string { return Print(l) }

// Apply builds the left-nested application (f a0 a1 ...).
func Apply(f Term, args ...Term) Term {
	for _, a := range args {
		f = &App{Fun: f, Arg: a}
	}
	return f
}

// Size counts the nodes of a term, following shared subterms every time
// they occur.
func Size(t Term) int {
	switch t := t.(type) {
	case *Var:
		return 1
	case *Lam:
		return 1 + Size(t.Body)
	case *App:
		return 1 + Size(t.Fun) + Size(t.Arg)
	case *Let:
		return 1 + Size(t.Value) + Size(t.Body)
	default:
		return 0
	}
}
