package lambda

import "strconv"

// NormalizeReference reduces a term to β-normal form by leftmost-outermost
// substitution. Lets are expanded first. ok is false when maxSteps
// β-steps did not reach a normal form; the partially reduced term is
// returned in that case.
func NormalizeReference(t Term, maxSteps int) (result Term, steps int, ok bool) {
	t = ExpandLets(t)
	for steps < maxSteps {
		next, reduced := step(t)
		if !reduced {
			return t, steps, true
		}
		t = next
		steps++
	}
	if _, reduced := step(t); !reduced {
		return t, steps, true
	}
	return t, steps, false
}

func step(t Term) (Term, bool) {
	switch t := t.(type) {
	case *App:
		if lam, ok := t.Fun.(*Lam); ok {
			return subst(lam.Body, lam.Param, t.Arg), true
		}
		if f, ok := step(t.Fun); ok {
			return &App{Fun: f, Arg: t.Arg}, true
		}
		if a, ok := step(t.Arg); ok {
			return &App{Fun: t.Fun, Arg: a}, true
		}
	case *Lam:
		if b, ok := step(t.Body); ok {
			return &Lam{Param: t.Param, Body: b}, true
		}
	case *Let:
		return subst(t.Body, t.Name, t.Value), true
	}
	return t, false
}

// ExpandLets replaces every let by the substitution of its value into its
// body.
func ExpandLets(t Term) Term {
	switch t := t.(type) {
	case *Lam:
		return &Lam{Param: t.Param, Body: ExpandLets(t.Body)}
	case *App:
		return &App{Fun: ExpandLets(t.Fun), Arg: ExpandLets(t.Arg)}
	case *Let:
		return subst(ExpandLets(t.Body), t.Name, ExpandLets(t.Value))
	default:
		return t
	}
}

// FreeVars returns the set of names occurring free in t.
func FreeVars(t Term) map[string]bool {
	fv := make(map[string]bool)
	collectFree(t, nil, fv)
	return fv
}

func collectFree(t Term, bound []string, fv map[string]bool) {
	switch t := t.(type) {
	case *Var:
		for i := len(bound) - 1; i >= 0; i-- {
			if bound[i] == t.Name {
				return
			}
		}
		fv[t.Name] = true
	case *Lam:
		collectFree(t.Body, append(bound, t.Param), fv)
	case *App:
		collectFree(t.Fun, bound, fv)
		collectFree(t.Arg, bound, fv)
	case *Let:
		collectFree(t.Value, bound, fv)
		collectFree(t.Body, append(bound, t.Name), fv)
	}
}

// subst replaces the free occurrences of x in t by s, renaming binders of
// t that would capture a free variable of s.
func subst(t Term, x string, s Term) Term {
	return substWith(t, x, s, FreeVars(s))
}

func substWith(t Term, x string, s Term, fvs map[string]bool) Term {
	switch t := t.(type) {
	case *Var:
		if t.Name == x {
			return s
		}
		return t
	case *App:
		return &App{Fun: substWith(t.Fun, x, s, fvs), Arg: substWith(t.Arg, x, s, fvs)}
	case *Lam:
		if t.Param == x {
			return t
		}
		body := t.Body
		if !FreeVars(body)[x] {
			return t
		}
		param := t.Param
		if fvs[param] {
			param = freshName(param, fvs, FreeVars(body))
			body = substWith(body, t.Param, &Var{Name: param}, map[string]bool{param: true})
		}
		return &Lam{Param: param, Body: substWith(body, x, s, fvs)}
	case *Let:
		value := substWith(t.Value, x, s, fvs)
		if t.Name == x {
			return &Let{Name: t.Name, Value: value, Body: t.Body}
		}
		name, body := t.Name, t.Body
		if fvs[name] && FreeVars(body)[x] {
			name = freshName(name, fvs, FreeVars(body))
			body = substWith(body, t.Name, &Var{Name: name}, map[string]bool{name: true})
		}
		return &Let{Name: name, Value: value, Body: substWith(body, x, s, fvs)}
	}
	return t
}

func freshName(base string, avoid ...map[string]bool) string {
	for i := 1; ; i++ {
		name := base + strconv.Itoa(i)
		taken := false
		for _, set := range avoid {
			taken = taken || set[name]
		}
		if !taken {
			return name
		}
	}
}

// AlphaEqual reports whether two terms are equal up to renaming of bound
// variables. Lets are expanded before comparing.
func AlphaEqual(a, b Term) bool {
	return alphaEqual(ExpandLets(a), ExpandLets(b), nil, nil)
}

func index(env []string, name string) int {
	for i := len(env) - 1; i >= 0; i-- {
		if env[i] == name {
			return len(env) - 1 - i
		}
	}
	return -1
}

func alphaEqual(a, b Term, ea, eb []string) bool {
	switch a := a.(type) {
	case *Var:
		bv, ok := b.(*Var)
		if !ok {
			return false
		}
		ia, ib := index(ea, a.Name), index(eb, bv.Name)
		if ia < 0 && ib < 0 {
			return a.Name == bv.Name
		}
		return ia == ib
	case *Lam:
		bl, ok := b.(*Lam)
		if !ok {
			return false
		}
		return alphaEqual(a.Body, bl.Body, append(ea[:len(ea):len(ea)], a.Param), append(eb[:len(eb):len(eb)], bl.Param))
	case *App:
		ba, ok := b.(*App)
		if !ok {
			return false
		}
		return alphaEqual(a.Fun, ba.Fun, ea, eb) && alphaEqual(a.Arg, ba.Arg, ea, eb)
	}
	return false
}
