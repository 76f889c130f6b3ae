package db

var (
	NamespaceSponsorBalance      = []byte("sb")
	NamespaceSettlementRecord    = []byte("sr")
	NamespaceLastSettlementIndex = []byte("lsi")
	EmptyKey                     = []byte{}
	Separator                    = []byte("|")
)

func PrependNamespace(namespace []byte, key []byte) []byte {
	if namespace != nil {
		return append(append(namespace, Separator...), key...)
	}
	return key
}

func ConvNilToBytes(byteArray []byte) []byte {
	if byteArray == nil {
		return []byte{}
	}
	return byteArray
}
