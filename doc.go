// Package pdf implements the core object-graph engine of the PDF file
// format: tokenizing, the indirect-object graph, cross-reference
// resolution, stream filters, the standard security handler, and a
// writer that assembles objects, xref and trailer.
//
// This package treats PDF files as containers containing a sequence of objects
// (typically Dictionaries and Streams).  Object are written sequentially, but
// can be read in any order.
//
// The content-drawing layer (text and graphics operators), font
// parsing, image ingestion and color-space construction are not part
// of this package; they only need to produce dictionaries and push
// bytes into streams, which this package supports directly.
//
// A `Reader` can be used to read an existing PDF file:
//
//      r, err := pdf.Open("in.pdf", nil)
//      if err != nil {
//          log.Fatal(err)
//      }
//      catalog := r.GetMeta().Catalog
//      ... use catalog to locate objects in the file ...
//
// A `Writer` can be used to write a new PDF file:
//
//     w, err := pdf.Create("out.pdf", pdf.V1_7, nil)
//     if err != nil {
//         log.Fatal(err)
//     }
//
//     ... add pages using w.AddPage(), and the objects they use
//     ... with w.Put() and w.OpenStream() ...
//
//     // Close writes the /Pages object, the catalog, the
//     // cross-reference section and the trailer.
//     err = w.Close()
//     if err != nil {
//         log.Fatal(err)
//     }
//
// The following classes implement native PDF objects which can be stored in
// PDF files.  All of these implement the `pdf.Object` interface:
//
//     Array
//     Boolean
//     Dict
//     Integer
//     Name
//     Real
//     Reference
//     Stream
//     String
//
// The subpackages ascii85 and lzw implement the codecs behind the
// ASCII85Decode and LZWDecode stream filters.
package pdf
