package schema

import "testing"

func TestValueTypeRoundTrip(t *testing.T) {
	types := []ValueType{TypeInt, TypeFloat, TypeString, TypeBool, TypeTime}

	for _, vt := range types {
		parsed, err := ParseValueType(vt.String())
		if err != nil {
			t.Errorf("ParseValueType(%s): unexpected error: %v", vt, err)
		}
		if parsed != vt {
			t.Errorf("expected %v, got %v", vt, parsed)
		}
	}
}

func TestParseValueTypeUnknown(t *testing.T) {
	if _, err := ParseValueType("decimal"); err == nil {
		t.Error("expected error for unknown value type")
	}
}

func TestValueTypeClassification(t *testing.T) {
	if !TypeInt.Numeric() || !TypeFloat.Numeric() {
		t.Error("int and float should be numeric")
	}
	if TypeString.Numeric() {
		t.Error("string should not be numeric")
	}
	if !TypeString.Textual() {
		t.Error("string should be textual")
	}
	if TypeBool.Textual() || TypeTime.Textual() {
		t.Error("bool and time should not be textual")
	}
}

func TestValueTypeUnmarshalText(t *testing.T) {
	var vt ValueType
	if err := vt.UnmarshalText([]byte("time")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vt != TypeTime {
		t.Errorf("expected TypeTime, got %v", vt)
	}

	if err := vt.UnmarshalText([]byte("uuid")); err == nil {
		t.Error("expected error for unknown value type")
	}
}

func TestRelationKindRoundTrip(t *testing.T) {
	kinds := []RelationKind{ManyToOne, OneToMany, ManyToMany}

	for _, rk := range kinds {
		parsed, err := ParseRelationKind(rk.String())
		if err != nil {
			t.Errorf("ParseRelationKind(%s): unexpected error: %v", rk, err)
		}
		if parsed != rk {
			t.Errorf("expected %v, got %v", rk, parsed)
		}
	}

	if _, err := ParseRelationKind("belongsTo"); err == nil {
		t.Error("expected error for unknown relation kind")
	}
}

func TestPropertyKindRelational(t *testing.T) {
	relational := []PropertyKind{KindManyToOne, KindOneToMany, KindManyToMany}
	for _, k := range relational {
		if !k.Relational() {
			t.Errorf("%s should be relational", k)
		}
	}

	if KindSimple.Relational() {
		t.Error("simple should not be relational")
	}
	if KindPrimaryKey.Relational() {
		t.Error("primaryKey should not be relational")
	}
}

func TestRelationKindPropertyKind(t *testing.T) {
	cases := map[RelationKind]PropertyKind{
		ManyToOne:  KindManyToOne,
		OneToMany:  KindOneToMany,
		ManyToMany: KindManyToMany,
	}

	for rk, want := range cases {
		if got := rk.propertyKind(); got != want {
			t.Errorf("%s: expected %s, got %s", rk, want, got)
		}
	}
}
