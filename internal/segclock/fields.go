package segclock

// FieldKind tells a settings form how to edit a field.
type FieldKind string

const (
	KindBool   FieldKind = "bool"
	KindInt    FieldKind = "int"
	KindColor  FieldKind = "color"
	KindSelect FieldKind = "select"
)

// Choice is one entry of a dropdown.
type Choice struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// Field describes one configuration key for a settings form.
type Field struct {
	Key     string    `json:"key"`
	Kind    FieldKind `json:"kind"`
	Info    string    `json:"info,omitempty"`
	Choices []Choice  `json:"choices,omitempty"`
}

// Fields lists the configuration keys in display order.
func (r *Renderer) Fields() []Field {
	fields := []Field{
		{Key: KeyEnabled, Kind: KindBool, Info: "(FL: First Led; LL: Last Led)"},
	}
	for _, k := range []segmentKeys{secondsUnitsKeys, secondsTensKeys, minutesUnitsKeys, minutesTensKeys, hoursKeys} {
		fields = append(fields,
			Field{Key: k.first(), Kind: KindInt},
			Field{Key: k.last(), Kind: KindInt},
			Field{Key: k.offset(), Kind: KindInt},
		)
	}
	fields = append(fields,
		Field{Key: KeyHourColor, Kind: KindColor, Info: "(all colors in RRGGBB hex format)"},
		Field{Key: KeyMinUnitColor, Kind: KindColor},
		Field{Key: KeyMinTensColor, Kind: KindColor},
		Field{Key: KeySecUnitColor, Kind: KindColor},
		Field{Key: KeySecTensColor, Kind: KindColor},
		Field{Key: KeyMovingEffect, Kind: KindSelect, Choices: []Choice{
			{Label: "Solid", Value: int(EffectSolid)},
			{Label: "Fade", Value: int(EffectFade)},
		}},
		Field{Key: KeyMarkingMode, Kind: KindSelect, Choices: []Choice{
			{Label: "Single", Value: int(MarkSingle)},
			{Label: "Cumulative", Value: int(MarkCumulative)},
		}},
		Field{Key: KeyBlendColors, Kind: KindBool, Info: "Version " + Version},
	)
	return fields
}
