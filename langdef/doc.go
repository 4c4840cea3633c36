/*
Package langdef converts textual grammar description to grammar.Grammar structure.

Grammar is described using PEG notation. Self-definition of this notation is:
*/
//  grammar PEG
//
//  langdef   <- header? rule+ EOF
//  header    <- "grammar" name
//  rule      <- name "<-" choice
//  choice    <- tagged ("/" tagged)*
//  tagged    <- sequence action? type*
//  sequence  <- ("@"? prefixed)+
//  prefixed  <- label prefixed / "&" prefixed / "!" prefixed / suffixed
//  suffixed  <- primary ("*" / "+" / "?" / repeat)?
//  primary   <- name !"<-" / string / ci-string / class / "." / "(" choice? ")"
//
//  name      <- [a-zA-Z_] [a-zA-Z_0-9]*
//  label     <- name ":"
//  action    <- "%" name
//  type      <- "<" [a-zA-Z_] [a-zA-Z_0-9.]* ">"
//  repeat    <- "{" [0-9]+ ("," [0-9]*)? "}"
//  string    <- '"' ([^"\\\n] / "\\" .)* '"' / "'" ([^'\\\n] / "\\" .)* "'"
//  ci-string <- "`" [^`\n]* "`"
//  class     <- "[" "^"? ([^\]\\\n] / "\\" .)* "]"
/*
Spaces and line breaks are insignificant, # starts a line comment.
The first rule is the root one. Names are case-sensitive.

Strings support Go escape sequences: \\, \", \', \n, \r, \t, \a, \b, \f, \v, \xHH, \uHHHH, \UHHHHHHHH.
Case-insensitive strings are enclosed in backticks and contain no escapes.

Character class contains single chars and ranges (a-z), "^" negates the class.
Class escapes are \n, \r, \t, \x{HEX}, any other char preceded by backslash is taken literally.

Sequence items prefixed with @ are muted: they must match but do not become children of the sequence node.
A label binds the sequence child to a name. An unlabeled reference that occurs once in a sequence
is labeled with the rule name.

Repetition suffixes are * (0 or more), + (1 or more), ? (0 or 1), {n} (exactly n),
{n,} (n or more), and {n,m} (n to m). Repetition is greedy and never gives matched items back.

An %action tag applies named host action to the node of the preceding sequence,
a <Type> tag passes the node to the type extension.
*/
package langdef
