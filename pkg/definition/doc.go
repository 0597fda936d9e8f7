// Package definition loads wizard definitions from YAML or JSON documents.
//
//	name: apply
//	base: /apply
//	steps:
//	  /name:
//	    template: name
//	    next: /age
//	    fields:
//	      - key: name
//	        validate: required
//	  /age:
//	    template: age
//	    next: /done
//	    forks:
//	      - target: /adult
//	        when: "age >= 18"
//
// Steps keep the order they are declared in. Fork conditions are either a
// field/value pair or an expression compiled with package expr.
package definition
