// Copyright 2015, David Howden
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
The tag tool reads metadata from media files.
*/
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/dhowden/tagkit"
)

var raw bool
var extractMBZ bool

var usage = func() {
	fmt.Fprintf(os.Stderr, "usage: %s [optional flags] filename\n", os.Args[0])
	flag.PrintDefaults()
}

func init() {
	flag.BoolVar(&raw, "raw", false, "show every tag item, including unmapped native keys")
	flag.BoolVar(&extractMBZ, "mbz", false, "extract MusicBrainz tag data (if available)")

	flag.Usage = usage
}

func main() {
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		return
	}

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		fmt.Printf("error loading file: %v", err)
		return
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		fmt.Printf("error stat'ing file: %v\n", err)
		return
	}

	tf, err := tagkit.Probe(f, fi.Size(), tagkit.DefaultParseOptions())
	if err != nil {
		fmt.Printf("error reading file: %v\n", err)
		return
	}

	printTaggedFile(tf)

	if raw {
		fmt.Println()
		fmt.Println()
		t := tf.PrimaryTag()
		if t == nil {
			fmt.Println("(no tag)")
		} else {
			for _, it := range t.Items {
				if it.Key == tagkit.ItemKeyUnknown {
					fmt.Printf("%q: %#v\n", it.Native, it.Value)
					continue
				}
				fmt.Printf("%v: %#v\n", it.Key, it.Value)
			}
		}
	}

	if extractMBZ {
		t := tf.PrimaryTag()
		if t == nil {
			fmt.Println("\nMusicBrainz Info: (no tag)")
			return
		}
		b, err := json.MarshalIndent(tagkit.MusicBrainz(t), "", "  ")
		if err != nil {
			fmt.Printf("error marshalling MusicBrainz info: %v\n", err)
			return
		}
		fmt.Printf("\nMusicBrainz Info:\n%v\n", string(b))
	}
}

func printTaggedFile(tf *tagkit.TaggedFile) {
	fmt.Printf("File Type: %v\n", tf.Type)
	fmt.Printf("Duration: %vms\n", tf.Properties.DurationMillis)
	if tf.Properties.SampleRate > 0 {
		fmt.Printf("Sample Rate: %vHz\n", tf.Properties.SampleRate)
	}
	if tf.Properties.Channels > 0 {
		fmt.Printf("Channels: %v\n", tf.Properties.Channels)
	}
	if tf.Properties.AudioBitrate > 0 {
		fmt.Printf("Bitrate: %vkbps\n", tf.Properties.AudioBitrate)
	}

	t := tf.PrimaryTag()
	if t == nil {
		fmt.Println("(no tag found)")
		return
	}

	fmt.Printf(" Title: %v\n", t.GetText(tagkit.ItemKeyTitle))
	fmt.Printf(" Album: %v\n", t.GetText(tagkit.ItemKeyAlbum))
	fmt.Printf(" Artist: %v\n", t.GetText(tagkit.ItemKeyArtist))
	fmt.Printf(" Composer: %v\n", t.GetText(tagkit.ItemKeyComposer))
	fmt.Printf(" Genre: %v\n", t.GetText(tagkit.ItemKeyGenre))
	fmt.Printf(" Recording Date: %v\n", t.GetText(tagkit.ItemKeyRecordingDate))

	track, hasTotal := t.Get(tagkit.ItemKeyTrackNumber)
	total, hasTrackTotal := t.Get(tagkit.ItemKeyTrackTotal)
	if hasTotal || hasTrackTotal {
		fmt.Printf(" Track: %v of %v\n", track.String(), total.String())
	}

	disc, hasDisc := t.Get(tagkit.ItemKeyDiscNumber)
	discTotal, hasDiscTotal := t.Get(tagkit.ItemKeyDiscTotal)
	if hasDisc || hasDiscTotal {
		fmt.Printf(" Disc: %v of %v\n", disc.String(), discTotal.String())
	}

	fmt.Printf(" Pictures: %v\n", len(t.Pictures))
	fmt.Printf(" Lyrics: %v\n", t.GetText(tagkit.ItemKeyLyrics))
}
