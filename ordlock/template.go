package ordlock

import "encoding/hex"

// The ordinal lock is a fixed script with two splice points:
//
//	prefix <ownerPKH> <payout output bytes> suffix
//
// The prefix pushes the covenant's constant keys and ends with two OP_0
// placeholders; the suffix holds the compiled contract body that selects
// between the cancel and purchase branches.
const (
	lockPrefixHex = "2097dfd76851bf465e8f715593b217714858bbe9570ff3bd5e33840a34e20ff0262102ba79df5f8ae7604a9830f03c79" +
		"33028186aede0675a16f025dc4f8be8eec0382201008ce7480da41702918d1ec8e6849ba32b4d65b1e40dc669c31a1e6" +
		"306b266c0000"

	lockSuffixHex = "615179547a75537a537a537a0079537a75527a527a7575615579008763567901c161517957795779210ac407f0e4bd44" +
		"bfc207355a778b046225a7068fc59ee7eda43ad905aadbffc800206c266b30e6a1319c66dc401e5bd6b432ba49688eec" +
		"d118297041da8074ce081059795679615679aa0079610079517f517f517f517f517f517f517f517f517f517f517f517f" +
		"517f517f517f517f517f517f517f517f517f517f517f517f517f517f517f517f517f517f517f7c7e7c7e7c7e7c7e7c7e" +
		"7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e" +
		"7c7e7c7e01007e81517a75615779567956795679567961537956795479577995939521414136d08c5ed2bf3ba048afe6" +
		"dcaebafeffffffffffffffffffffffffffffff00517951796151795179970079009f63007952799367007968517a7551" +
		"7a75517a7561527a75517a517951795296a0630079527994527a75517a6853798277527982775379012080517f517f51" +
		"7f517f517f517f517f517f517f517f517f517f517f517f517f517f517f517f517f517f517f517f517f517f517f517f51" +
		"7f517f517f517f517f7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c" +
		"7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e01205279947f7754537993527993013051797e527e54797e58" +
		"797e527e53797e52797e57797e0079517a75517a75517a75517a75517a75517a75517a75517a75517a75517a75517a75" +
		"517a75517a756100795779ac517a75517a75517a75517a75517a75517a75517a75517a75517a7561517a75517a756169" +
		"587951797e58797eaa577961007982775179517958947f7551790128947f77517a75517a756187777777777777777777" +
		"67557951876351795779a9876957795779ac777777777777777767006868"
)

var (
	lockPrefix = mustDecodeHex(lockPrefixHex)
	lockSuffix = mustDecodeHex(lockSuffixHex)
)

func mustDecodeHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic("ordlock: bad template constant: " + err.Error())
	}
	return b
}

// TemplateSize is the length of the fixed parts of a listing script.
func TemplateSize() int {
	return len(lockPrefix) + len(lockSuffix)
}
