package pdf

import "fmt"

// asName resolves obj and casts it to a Name, following indirect
// references the same way [GetName] does.  The /Filter array decoding
// path in filter.go uses it; a value of another type is reported as a
// [MalformedFileError] naming the type that was found.
func asName(r Getter, obj Object) (Name, error) {
	resolved, err := Resolve(r, obj)
	if err != nil {
		return "", err
	}
	name, ok := resolved.(Name)
	if !ok {
		return "", &MalformedFileError{
			Err: fmt.Errorf("expected Name but got %T", resolved),
		}
	}
	return name, nil
}

// asDict resolves obj and casts it to a Dict.  A missing entry (obj ==
// nil) is treated as an empty dictionary, matching the PDF convention
// that an absent /DecodeParms entry means "no parameters".
func asDict(r Getter, obj Object) (Dict, error) {
	resolved, err := Resolve(r, obj)
	if err != nil {
		return nil, err
	}
	if resolved == nil {
		return Dict{}, nil
	}
	dict, ok := resolved.(Dict)
	if !ok {
		return nil, &MalformedFileError{
			Err: fmt.Errorf("expected Dict but got %T", resolved),
		}
	}
	return dict, nil
}
