package hashwire_test

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/acolita/hashwire/pkg/archive"
	"github.com/acolita/hashwire/pkg/binser"
	"github.com/acolita/hashwire/pkg/bufferset"
	"github.com/acolita/hashwire/pkg/hash"
	"github.com/acolita/hashwire/pkg/serializer"
)

func Example_saveLoad() {
	h := hash.New("motor.speed", int32(5), "motor.name", "m1")
	if err := h.SetAttribute("motor.speed", "unit", "mm/s"); err != nil {
		log.Fatal(err)
	}

	data, err := binser.Save(h)
	if err != nil {
		log.Fatal(err)
	}
	out := hash.New()
	n, err := binser.Load(out, data)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(n == len(data))
	fmt.Print(out)
	// Output:
	// true
	// 'motor' +
	//   'speed' unit="mm/s" => 5 INT32
	//   'name' => m1 STRING
}

func Example_wireBytes() {
	// u32 node count, u8 key length, key, u32 attribute count,
	// u32 type tag (INT32 = 12), value
	data, err := binser.Save(hash.New("a", int32(1)))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("% x\n", data)
	// Output:
	// 01 00 00 00 01 61 00 00 00 00 0c 00 00 00 01 00 00 00
}

func Example_loadLastFromSequence() {
	s := binser.New()
	var stream []byte
	for i := range 3 {
		if err := s.Save2(hash.New("seq", int32(i)), &stream); err != nil {
			log.Fatal(err)
		}
	}

	h := hash.New()
	if err := s.LoadLastFromSequence(h, stream); err != nil {
		log.Fatal(err)
	}
	seq, err := hash.GetAs[int32](h, "seq")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(seq)
	// Output:
	// 2
}

func Example_bufferSet() {
	arr, err := hash.NDArrayOf([]float64{1, 2, 3, 4}, 4)
	if err != nil {
		log.Fatal(err)
	}
	h := hash.New("id", int32(7), "frame", arr, "ok", true)

	// Without copyAll the array payload becomes a segment of its own that
	// references the array memory.
	set := bufferset.New(false)
	defer set.Reset()
	if err := binser.New().SaveBufferSet(h, set); err != nil {
		log.Fatal(err)
	}
	fmt.Println(set.Sizes(), set.Borrowed(1))
	// Output:
	// [58 32 12] true
}

func Example_schemaAlias() {
	sc := hash.NewSchema("Motor")
	sc.AddLeaf("speed", hash.TypeInt32, hash.AccessRead|hash.AccessWrite).
		SetAttribute(hash.AttrAlias, "SPD")

	s := binser.New()
	data, err := s.SaveSchema(sc)
	if err != nil {
		log.Fatal(err)
	}
	back, _, err := s.LoadSchema(data)
	if err != nil {
		log.Fatal(err)
	}
	key, err := back.KeyFromAlias("SPD")
	if err != nil {
		log.Fatal(err)
	}
	vt, err := back.ValueType(key)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(back.RootName(), key, vt)
	// Output:
	// Motor speed INT32
}

func Example_serializerByName() {
	h := hash.New("a.b", []string{"x", "y"})
	for _, name := range serializer.Names() {
		s, err := serializer.New(name, nil)
		if err != nil {
			log.Fatal(err)
		}
		data, err := s.Save(h)
		if err != nil {
			log.Fatal(err)
		}
		out := hash.New()
		if _, err := s.Load(out, data); err != nil {
			log.Fatal(err)
		}
		fmt.Println(name, serializer.Detect(data), hash.FullyEquals(h, out, true))
	}
	// Output:
	// Bin Bin true
	// Cbor Cbor true
}

func Example_archive() {
	dir, err := os.MkdirTemp("", "hashwire")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	a, err := archive.Open(filepath.Join(dir, "state.hwa"), binser.New(),
		archive.WithCompression(archive.CompressionZstd), archive.WithDigest())
	if err != nil {
		log.Fatal(err)
	}
	defer a.Close()

	for i := range 3 {
		if err := a.Append(hash.New("seq", int32(i))); err != nil {
			log.Fatal(err)
		}
	}
	h := hash.New()
	if err := a.Last(h); err != nil {
		log.Fatal(err)
	}
	fmt.Println(a.Len(), h.String())
	// Output:
	// 3 'seq' => 2 INT32
}
