/*
Package flow loads, validates and interprets conversation scripts.

A flow document lists steps of three kinds:

	start: start
	terminal: done
	steps:
	  - id: start
	    kind: message
	    content: "Olá {{name}}!"
	    next: ask_profile
	  - id: ask_profile
	    kind: choice
	    question: "Para quem é o plano?"
	    options:
	      - {label: Individual, value: individual}
	      - {label: Casal, value: casal}
	    next: result
	  - id: result
	    kind: action
	    action: generate_recommendation
	    next: done

A Definition is immutable once built. Resolve is the pure decision function
that maps raw participant input on a Choice step to an explicit Outcome.
*/
package flow
