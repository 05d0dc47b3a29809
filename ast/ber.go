package ast

import (
	"fmt"

	ber "github.com/go-asn1-ber/asn1-ber"
)

// Context-specific tags of the Filter CHOICE in a SearchRequest (RFC4511).
const (
	tagAnd             = 0x0
	tagOr              = 0x1
	tagNot             = 0x2
	tagEqualityMatch   = 0x3
	tagSubstring       = 0x4
	tagGreaterOrEqual  = 0x5
	tagLessOrEqual     = 0x6
	tagPresent         = 0x7
	tagApproxMatch     = 0x8
	tagExtensibleMatch = 0x9
)

func attributeValuePair(packet *ber.Packet, what string) (string, string, error) {
	if len(packet.Children) != 2 {
		return "", "", fmt.Errorf("%s filter should have 2 children", what)
	}
	return string(packet.Children[0].ByteValue), string(packet.Children[1].ByteValue), nil
}

// PacketToFilter converts a BER-encoded search filter into the semantic
// model.
func PacketToFilter(packet *ber.Packet) (Filter, error) {
	switch packet.Tag {
	case tagAnd, tagOr:
		var filters []Filter
		for _, child := range packet.Children {
			subFilter, err := PacketToFilter(child)
			if err != nil {
				return nil, err
			}
			filters = append(filters, subFilter)
		}
		if packet.Tag == tagAnd {
			return &FilterAnd{Filters: filters}, nil
		}
		return &FilterOr{Filters: filters}, nil

	case tagNot:
		if len(packet.Children) != 1 {
			return nil, fmt.Errorf("NOT filter should have exactly 1 child")
		}
		subFilter, err := PacketToFilter(packet.Children[0])
		if err != nil {
			return nil, err
		}
		return &FilterNot{Filter: subFilter}, nil

	case tagEqualityMatch:
		attr, value, err := attributeValuePair(packet, "equality match")
		if err != nil {
			return nil, err
		}
		return &FilterEqualityMatch{AttributeDesc: attr, AssertionValue: value}, nil

	case tagSubstring:
		if len(packet.Children) < 2 {
			return nil, fmt.Errorf("substring filter should have at least 2 children")
		}
		attr := string(packet.Children[0].ByteValue)
		var substrs []SubstringFilter
		for _, subPacket := range packet.Children[1].Children {
			switch int(subPacket.Tag) {
			case 0x0:
				substrs = append(substrs, SubstringFilter{Initial: string(subPacket.Data.Bytes())})
			case 0x1:
				substrs = append(substrs, SubstringFilter{Any: []string{string(subPacket.Data.Bytes())}})
			case 0x2:
				substrs = append(substrs, SubstringFilter{Final: string(subPacket.Data.Bytes())})
			}
		}
		return &FilterSubstring{AttributeDesc: attr, Substrings: substrs}, nil

	case tagGreaterOrEqual:
		attr, value, err := attributeValuePair(packet, "greater-or-equal")
		if err != nil {
			return nil, err
		}
		return &FilterGreaterOrEqual{AttributeDesc: attr, AssertionValue: value}, nil

	case tagLessOrEqual:
		attr, value, err := attributeValuePair(packet, "less-or-equal")
		if err != nil {
			return nil, err
		}
		return &FilterLessOrEqual{AttributeDesc: attr, AssertionValue: value}, nil

	case tagPresent:
		if packet.Data.Len() < 1 {
			return nil, fmt.Errorf("present filter should have data")
		}
		return &FilterPresent{AttributeDesc: packet.Data.String()}, nil

	case tagApproxMatch:
		attr, value, err := attributeValuePair(packet, "approx match")
		if err != nil {
			return nil, err
		}
		return &FilterApproxMatch{AttributeDesc: attr, AssertionValue: value}, nil

	case tagExtensibleMatch:
		if len(packet.Children) < 2 {
			return nil, fmt.Errorf("extensible match filter should have at least 2 children")
		}
		f := &FilterExtensibleMatch{}
		for _, child := range packet.Children {
			switch int(child.Tag) {
			case 0x1:
				f.MatchingRule = string(child.Data.Bytes())
			case 0x2:
				f.AttributeDesc = string(child.Data.Bytes())
			case 0x3:
				f.MatchValue = string(child.Data.Bytes())
			case 0x4:
				f.DNAttributes = len(child.Data.Bytes()) > 0 && child.Data.Bytes()[0] == 0xFF
			}
		}
		return f, nil
	}
	return nil, fmt.Errorf("unsupported filter type with tag: %x", packet.Tag)
}

func newLeafPacket(tag ber.Tag, description, attr, value string) *ber.Packet {
	packet := ber.Encode(ber.ClassContext, ber.TypeConstructed, tag, nil, description)
	packet.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, attr, "Attribute Desc"))
	packet.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, value, "Assertion Value"))
	return packet
}

// FilterToPacket converts the semantic model into its BER encoding.
func FilterToPacket(f Filter) *ber.Packet {
	switch filter := f.(type) {
	case *FilterAnd:
		packet := ber.Encode(ber.ClassContext, ber.TypeConstructed, tagAnd, nil, "AND")
		for _, subFilter := range filter.Filters {
			packet.AppendChild(FilterToPacket(subFilter))
		}
		return packet

	case *FilterOr:
		packet := ber.Encode(ber.ClassContext, ber.TypeConstructed, tagOr, nil, "OR")
		for _, subFilter := range filter.Filters {
			packet.AppendChild(FilterToPacket(subFilter))
		}
		return packet

	case *FilterNot:
		packet := ber.Encode(ber.ClassContext, ber.TypeConstructed, tagNot, nil, "NOT")
		packet.AppendChild(FilterToPacket(filter.Filter))
		return packet

	case *FilterEqualityMatch:
		return newLeafPacket(tagEqualityMatch, "Equality Match", filter.AttributeDesc, filter.AssertionValue)

	case *FilterSubstring:
		packet := ber.Encode(ber.ClassContext, ber.TypeConstructed, tagSubstring, nil, "Substring")
		packet.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, filter.AttributeDesc, "Attribute Desc"))
		substrings := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "Substrings")
		for _, substr := range filter.Substrings {
			if substr.Initial != "" {
				substrings.AppendChild(ber.NewString(ber.ClassContext, ber.TypePrimitive, 0x0, substr.Initial, "Initial"))
			}
			for _, any := range substr.Any {
				substrings.AppendChild(ber.NewString(ber.ClassContext, ber.TypePrimitive, 0x1, any, "Any"))
			}
			if substr.Final != "" {
				substrings.AppendChild(ber.NewString(ber.ClassContext, ber.TypePrimitive, 0x2, substr.Final, "Final"))
			}
		}
		packet.AppendChild(substrings)
		return packet

	case *FilterGreaterOrEqual:
		return newLeafPacket(tagGreaterOrEqual, "Greater Or Equal", filter.AttributeDesc, filter.AssertionValue)

	case *FilterLessOrEqual:
		return newLeafPacket(tagLessOrEqual, "Less Or Equal", filter.AttributeDesc, filter.AssertionValue)

	case *FilterPresent:
		return ber.NewString(ber.ClassContext, ber.TypePrimitive, tagPresent, filter.AttributeDesc, "Present")

	case *FilterApproxMatch:
		return newLeafPacket(tagApproxMatch, "Approx Match", filter.AttributeDesc, filter.AssertionValue)

	case *FilterExtensibleMatch:
		packet := ber.Encode(ber.ClassContext, ber.TypeConstructed, tagExtensibleMatch, nil, "Extensible Match")
		if filter.MatchingRule != "" {
			packet.AppendChild(ber.NewString(ber.ClassContext, ber.TypePrimitive, 0x1, filter.MatchingRule, "Matching Rule"))
		}
		if filter.AttributeDesc != "" {
			packet.AppendChild(ber.NewString(ber.ClassContext, ber.TypePrimitive, 0x2, filter.AttributeDesc, "Attribute Desc"))
		}
		if filter.MatchValue != "" {
			packet.AppendChild(ber.NewString(ber.ClassContext, ber.TypePrimitive, 0x3, filter.MatchValue, "Match Value"))
		}
		if filter.DNAttributes {
			packet.AppendChild(ber.NewBoolean(ber.ClassContext, ber.TypePrimitive, 0x4, true, "DN Attributes"))
		}
		return packet
	}

	return nil
}
